//go:build !cgo || fasttext_reduced

package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// EngineModuleEnv names the environment variable holding the path of the
// wasm32 engine build when Config.EngineModule is empty.
const EngineModuleEnv = "FASTTEXT_WASM"

// Guest memory layout constants for the wasm32 target.
const (
	envelopeSize   = 8  // {const char* error; T result}
	predictionSize = 8  // {float probability; char* label}
	scratchSize    = 16 // envelope at +0, size_t count at +8
)

var guestExports = []string{
	"fasttext_new",
	"fasttext_delete",
	"fasttext_load_model",
	"fasttext_load_model_from_buffer",
	"fasttext_predict",
	"fasttext_free_predictions",
	"malloc",
	"free",
}

// host is the process-wide wazero runtime shared by every guest instance.
type host struct {
	runtime wazero.Runtime

	mu       sync.Mutex
	compiled map[[sha256.Size]byte]wazero.CompiledModule
}

var (
	hostOnce sync.Once
	shared   *host
	hostErr  error
)

func sharedHost(ctx context.Context, limitPages uint32) (*host, error) {
	hostOnce.Do(func() {
		cfg := wazero.NewRuntimeConfig()
		if limitPages > 0 {
			cfg = cfg.WithMemoryLimitPages(limitPages)
		}
		r := wazero.NewRuntimeWithConfig(ctx, cfg)
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			_ = r.Close(ctx)
			hostErr = fmt.Errorf("instantiate WASI: %w", err)
			return
		}
		shared = &host{runtime: r, compiled: make(map[[sha256.Size]byte]wazero.CompiledModule)}
	})
	return shared, hostErr
}

func (h *host) compile(ctx context.Context, wasm []byte) (wazero.CompiledModule, error) {
	key := sha256.Sum256(wasm)

	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.compiled[key]; ok {
		return c, nil
	}
	c, err := h.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("compile engine module: %w", err)
	}
	for _, name := range guestExports {
		if _, ok := c.ExportedFunctions()[name]; !ok {
			_ = c.Close(ctx)
			return nil, fmt.Errorf("engine module does not export %s", name)
		}
	}
	h.compiled[key] = c
	return c, nil
}

func engineModule(cfg Config) ([]byte, error) {
	if len(cfg.EngineModule) > 0 {
		return cfg.EngineModule, nil
	}
	path := os.Getenv(EngineModuleEnv)
	if path == "" {
		return nil, fmt.Errorf("no engine module configured and %s is unset", EngineModuleEnv)
	}
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine module: %w", err)
	}
	return wasm, nil
}

// guest is one instance of the engine module. Calls into it must not overlap.
type guest struct {
	mod     api.Module
	mem     api.Memory
	fns     map[string]api.Function
	scratch uint32
}

func newGuest(ctx context.Context, cfg Config) (*guest, error) {
	wasm, err := engineModule(cfg)
	if err != nil {
		return nil, err
	}
	h, err := sharedHost(ctx, cfg.MemoryLimitPages)
	if err != nil {
		return nil, err
	}
	compiled, err := h.compile(ctx, wasm)
	if err != nil {
		return nil, err
	}

	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize").
		WithFSConfig(wazero.NewFSConfig().WithReadOnlyDirMount("/", "/"))
	mod, err := h.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf("instantiate engine module: %w", err)
	}

	g := &guest{mod: mod, mem: mod.Memory(), fns: make(map[string]api.Function, len(guestExports))}
	if g.mem == nil {
		_ = mod.Close(ctx)
		return nil, errors.New("engine module has no exported memory")
	}
	for _, name := range guestExports {
		g.fns[name] = mod.ExportedFunction(name)
	}
	if g.scratch, err = g.malloc(ctx, "new", scratchSize); err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	return g, nil
}

func (g *guest) close(ctx context.Context) error {
	return g.mod.Close(ctx)
}

// call invokes an export. A trap is reported as a native failure.
func (g *guest) call(ctx context.Context, op, name string, params ...uint64) ([]uint64, error) {
	res, err := g.fns[name].Call(ctx, params...)
	if err != nil {
		return nil, newError(op, KindNative, "engine trapped in %s: %v", name, err)
	}
	return res, nil
}

func (g *guest) malloc(ctx context.Context, op string, size uint32) (uint32, error) {
	res, err := g.call(ctx, op, "malloc", uint64(size))
	if err != nil {
		return 0, err
	}
	if len(res) == 0 || uint32(res[0]) == 0 {
		return 0, newError(op, KindAllocation, "guest malloc(%d) returned null", size)
	}
	return uint32(res[0]), nil
}

func (g *guest) free(ctx context.Context, ptr uint32) {
	if ptr == 0 {
		return
	}
	_, _ = g.fns["free"].Call(ctx, uint64(ptr))
}

// write copies data into a fresh guest allocation. The caller frees it.
func (g *guest) write(ctx context.Context, op string, data []byte) (uint32, error) {
	ptr, err := g.malloc(ctx, op, uint32(len(data)))
	if err != nil {
		return 0, err
	}
	if !g.mem.Write(ptr, data) {
		g.free(ctx, ptr)
		return 0, newError(op, KindProtocol, "guest allocation at %#x is outside memory", ptr)
	}
	return ptr, nil
}

// cString writes s with a trailing NUL into guest memory.
func (g *guest) cString(ctx context.Context, op, s string) (uint32, error) {
	if err := encodeText(op, s); err != nil {
		return 0, err
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return g.write(ctx, op, buf)
}

func (g *guest) u32(op string, addr uint32) (uint32, error) {
	v, ok := g.mem.ReadUint32Le(addr)
	if !ok {
		return 0, newError(op, KindProtocol, "read of %#x is outside guest memory", addr)
	}
	return v, nil
}

// goString copies the NUL-terminated guest string at ptr.
func (g *guest) goString(op string, ptr uint32) (string, error) {
	if ptr == 0 {
		return "", nil
	}
	size := g.mem.Size()
	if ptr >= size {
		return "", newError(op, KindProtocol, "string at %#x is outside guest memory", ptr)
	}
	view, _ := g.mem.Read(ptr, size-ptr)
	n := bytes.IndexByte(view, 0)
	if n < 0 {
		return "", newError(op, KindProtocol, "unterminated string at %#x", ptr)
	}
	return string(view[:n]), nil
}

// envelope reads the {error, result} pair the guest wrote to the scratch
// area.
func (g *guest) envelope(op string) (envelope[uint32], error) {
	errPtr, err := g.u32(op, g.scratch)
	if err != nil {
		return envelope[uint32]{}, err
	}
	result, err := g.u32(op, g.scratch+4)
	if err != nil {
		return envelope[uint32]{}, err
	}
	return envelope[uint32]{
		op:     op,
		failed: errPtr != 0,
		message: func() string {
			s, err := g.goString(op, errPtr)
			if err != nil {
				return err.Error()
			}
			return s
		},
		payload: result,
	}, nil
}
