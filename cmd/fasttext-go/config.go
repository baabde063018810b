package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/modelsource"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/worker"
)

// cliConfig is the YAML document accepted by -config. Flags override it.
type cliConfig struct {
	Model string `yaml:"model"`
	K     int32  `yaml:"k"`

	// RequireWrapper is a semver constraint, such as ">= 0.3.0", that the
	// running wrapper build must satisfy.
	RequireWrapper string `yaml:"require_wrapper"`

	Engine struct {
		Module           string `yaml:"module"`
		MemoryLimitPages uint32 `yaml:"memory_limit_pages"`
	} `yaml:"engine"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Worker struct {
		MaxConcurrentReads int64   `yaml:"max_concurrent_reads"`
		RateLimit          float64 `yaml:"rate_limit"`
		Burst              int     `yaml:"burst"`
	} `yaml:"worker"`

	Telemetry telemetryConfig `yaml:"telemetry"`

	Sources modelsource.Options `yaml:"sources"`
}

func defaultConfig() cliConfig {
	var c cliConfig
	c.K = 1
	c.Log.Level = "warn"
	c.Log.Format = "console"
	c.Telemetry.ServiceName = "fasttext-go"
	c.Telemetry.SampleRate = 1
	return c
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (cliConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c cliConfig) validate() error {
	if c.K < 0 {
		return fmt.Errorf("k must not be negative, got %d", c.K)
	}
	if c.Worker.RateLimit < 0 {
		return fmt.Errorf("worker.rate_limit must not be negative")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if r := c.Telemetry.SampleRate; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sample_rate must be within [0, 1], got %g", r)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return c.checkWrapper()
}

func (c cliConfig) checkWrapper() error {
	if c.RequireWrapper == "" {
		return nil
	}
	ok, err := fasttext.SatisfiesVersion(c.RequireWrapper)
	if err != nil {
		return fmt.Errorf("require_wrapper: %w", err)
	}
	if !ok {
		return fmt.Errorf("require_wrapper: wrapper %s does not satisfy %q", fasttext.WrapperVersion(), c.RequireWrapper)
	}
	return nil
}

func (c cliConfig) newLogger(stderr io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if c.Log.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(stderr)), level)
	return zap.New(core), nil
}

func (c cliConfig) modelOptions(log logging.Logger) []fasttext.Option {
	opts := []fasttext.Option{fasttext.WithLogger(log)}
	if c.Engine.Module != "" {
		opts = append(opts, fasttext.WithEngineModuleFile(c.Engine.Module))
	}
	if c.Engine.MemoryLimitPages > 0 {
		opts = append(opts, fasttext.WithMemoryLimitPages(c.Engine.MemoryLimitPages))
	}
	return opts
}

func (c cliConfig) workerOptions(log logging.Logger) worker.Options {
	return worker.Options{
		MaxConcurrentReads: c.Worker.MaxConcurrentReads,
		RateLimit:          rate.Limit(c.Worker.RateLimit),
		Burst:              c.Worker.Burst,
		Logger:             log,
	}
}
