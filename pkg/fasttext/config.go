package fasttext

import (
	"fmt"
	"os"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext/internal/backend"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
)

// Config expresses the knobs used when creating a Model. The zero value is
// valid: it logs through slog.Default and, in reduced builds, reads the
// engine module from the FASTTEXT_WASM environment variable.
type Config struct {
	Logger logging.Logger

	// EngineModule is the wasm32 engine build used by reduced builds. Full
	// builds ignore it.
	EngineModule []byte

	// EngineModulePath is read when EngineModule is empty.
	EngineModulePath string

	// MemoryLimitPages caps guest memory in 64 KiB pages for reduced builds.
	MemoryLimitPages uint32
}

// Option mutates a Config.
type Option func(*Config)

// WithLogger routes lifecycle logs to l.
func WithLogger(l logging.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithEngineModule supplies the wasm32 engine build directly.
func WithEngineModule(wasm []byte) Option {
	return func(c *Config) { c.EngineModule = wasm }
}

// WithEngineModuleFile reads the wasm32 engine build from path when the model
// is created.
func WithEngineModuleFile(path string) Option {
	return func(c *Config) { c.EngineModulePath = path }
}

// WithMemoryLimitPages caps guest memory for reduced builds.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *Config) { c.MemoryLimitPages = pages }
}

func newConfig(opts []Option) Config {
	var c Config
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.Logger == nil {
		c.Logger = logging.New(nil)
	}
	return c
}

func (c Config) toBackend() (backend.Config, error) {
	bc := backend.Config{EngineModule: c.EngineModule, MemoryLimitPages: c.MemoryLimitPages}
	if len(bc.EngineModule) == 0 && c.EngineModulePath != "" && CurrentCapabilities().Surface == SurfaceReduced {
		wasm, err := os.ReadFile(c.EngineModulePath)
		if err != nil {
			return backend.Config{}, fmt.Errorf("fasttext: read engine module: %w", err)
		}
		bc.EngineModule = wasm
	}
	return bc, nil
}
