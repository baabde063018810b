package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "fasttext.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, int32(1), cfg.K)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfigFile(t *testing.T) {
	p := writeConfig(t, `
model: s3://models/cooking.bin.zst
k: 3
engine:
  module: /opt/fasttext/fasttext.wasm
  memory_limit_pages: 2048
log:
  level: debug
  format: json
worker:
  max_concurrent_reads: 4
  rate_limit: 50
  burst: 10
sources:
  s3:
    region: eu-west-1
  minio:
    endpoint: localhost:9000
    access_key: minio
    secret_key: minio123
`)
	cfg, err := loadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "s3://models/cooking.bin.zst", cfg.Model)
	assert.Equal(t, int32(3), cfg.K)
	assert.Equal(t, "/opt/fasttext/fasttext.wasm", cfg.Engine.Module)
	assert.Equal(t, uint32(2048), cfg.Engine.MemoryLimitPages)
	assert.Equal(t, "eu-west-1", cfg.Sources.S3.Region)
	assert.Equal(t, "localhost:9000", cfg.Sources.MinIO.Endpoint)

	opts := cfg.workerOptions(logging.Discard())
	assert.Equal(t, int64(4), opts.MaxConcurrentReads)
	assert.Equal(t, rate.Limit(50), opts.RateLimit)
	assert.Equal(t, 10, opts.Burst)
	assert.Len(t, cfg.modelOptions(logging.Discard()), 3)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown field", "modle: typo.bin\n"},
		{"negative k", "k: -1\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"negative rate", "worker:\n  rate_limit: -2\n"},
		{"not yaml", "model: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigRequireWrapper(t *testing.T) {
	prev := fasttext.Version
	t.Cleanup(func() { fasttext.Version = prev })
	fasttext.Version = "v0.4.1"

	cfg, err := loadConfig(writeConfig(t, "require_wrapper: \">= 0.3.0, < 1.0.0\"\n"))
	require.NoError(t, err)
	assert.Equal(t, ">= 0.3.0, < 1.0.0", cfg.RequireWrapper)

	_, err = loadConfig(writeConfig(t, "require_wrapper: \">= 0.5.0\"\n"))
	assert.ErrorContains(t, err, "v0.4.1 does not satisfy")

	_, err = loadConfig(writeConfig(t, "require_wrapper: \"about two\"\n"))
	assert.ErrorContains(t, err, "require_wrapper")

	fasttext.Version = "v0.0.0-in-progress"
	_, _, err = runCLI(t, "-config", writeConfig(t, "require_wrapper: \">= 0.3.0\"\n"), "info", "-model", "m.bin")
	assert.ErrorContains(t, err, "does not satisfy")
}

func TestNewLoggerWritesJSON(t *testing.T) {
	cfg := defaultConfig()
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	var buf bytes.Buffer
	zl, err := cfg.newLogger(&buf)
	require.NoError(t, err)

	zl.Debug("hidden")
	zl.Info("shown")
	require.NoError(t, zl.Sync())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestTelemetryConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, "telemetry:\n  endpoint: localhost:4317\n  insecure: true\n  sample_rate: 0.25\n"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:4317", cfg.Telemetry.Endpoint)
	assert.Equal(t, "fasttext-go", cfg.Telemetry.ServiceName)
	assert.Contains(t, cfg.Telemetry.sampler().Description(), "TraceIDRatioBased")

	_, err = loadConfig(writeConfig(t, "telemetry:\n  sample_rate: 2\n"))
	assert.Error(t, err)

	shutdown, err := setupTelemetry(t.Context(), defaultConfig().Telemetry, logging.Discard())
	require.NoError(t, err)
	assert.NoError(t, shutdown(t.Context()))
}
