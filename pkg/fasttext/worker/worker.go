// Package worker serializes access to a fasttext.Model for concurrent
// callers.
//
// Read-only queries share a read lock and are bounded by a semaphore.
// Loading, saving, nearest-neighbour and analogy queries take the write
// lock, since the engine mutates its state for them. Calls honour their
// context while waiting; once the engine is running it cannot be
// interrupted, so a cancelled caller returns early and the engine call
// completes in the background with its result discarded.
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/SimplyComplexApps/fastText/pkg/fasttext"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"
	"github.com/SimplyComplexApps/fastText/pkg/fasttext/modelsource"
)

const instrumentationName = "github.com/SimplyComplexApps/fastText/pkg/fasttext/worker"

// ErrClosed reports a call on a closed Worker.
var ErrClosed = errors.New("worker: closed")

// Model is the subset of *fasttext.Model a Worker drives.
type Model interface {
	Capabilities() fasttext.Capabilities
	Close() error
	LoadModel(path string) error
	LoadModelFromBuffer(data []byte) error
	LoadFrom(ctx context.Context, src modelsource.Source) error
	SaveModel(path string) error
	SaveTo(ctx context.Context, sink modelsource.Sink, name string) error
	Predict(text string, k int32, threshold float32) ([]fasttext.Prediction, error)
	NearestNeighbors(word string, k int32) ([]fasttext.Neighbor, error)
	Analogies(a, b, c string, k int32) ([]fasttext.Neighbor, error)
	WordID(word string) (int32, error)
	SubwordID(subword string) (int32, error)
	Dimension() (int, error)
	WordVector(word string) ([]float32, error)
	SentenceVector(text string) ([]float32, error)
}

// Options tunes a Worker. The zero value is usable.
type Options struct {
	// MaxConcurrentReads bounds overlapping read-only calls. It defaults to
	// GOMAXPROCS and is forced to 1 when the binding set does not allow
	// concurrent reads.
	MaxConcurrentReads int64

	// RateLimit caps calls per second across all operations. Zero disables
	// limiting.
	RateLimit rate.Limit
	Burst     int

	Logger logging.Logger
	Tracer trace.Tracer
	Meter  metric.Meter
}

// Worker owns a Model and enforces its access discipline.
type Worker struct {
	mu     sync.RWMutex
	model  Model
	closed bool

	reads    *semaphore.Weighted
	maxReads int64
	limiter  *rate.Limiter

	log      logging.Logger
	tracer   trace.Tracer
	calls    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// New wraps m. The Worker takes ownership: Close closes m.
func New(m Model, opts Options) (*Worker, error) {
	if m == nil {
		return nil, fasttext.ErrInvalidArgument
	}
	maxReads := opts.MaxConcurrentReads
	if maxReads <= 0 {
		maxReads = int64(runtime.GOMAXPROCS(0))
	}
	if !m.Capabilities().ConcurrentReads {
		maxReads = 1
	}

	w := &Worker{
		model:    m,
		reads:    semaphore.NewWeighted(maxReads),
		maxReads: maxReads,
		tracer:   opts.Tracer,
	}
	log := opts.Logger
	if log == nil {
		log = logging.New(nil)
	}
	w.log = logging.ForWorker(log, maxReads)
	if w.tracer == nil {
		w.tracer = otel.Tracer(instrumentationName)
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		w.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}

	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	var err error
	if w.calls, err = meter.Int64Counter("fasttext.worker.calls",
		metric.WithDescription("Engine calls issued through the worker"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if w.failures, err = meter.Int64Counter("fasttext.worker.errors",
		metric.WithDescription("Engine calls that returned an error"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if w.duration, err = meter.Float64Histogram("fasttext.worker.duration",
		metric.WithDescription("Engine call duration in seconds, including lock wait"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return w, nil
}

// MaxConcurrentReads reports the effective read concurrency.
func (w *Worker) MaxConcurrentReads() int64 { return w.maxReads }

type access int

const (
	shared access = iota
	exclusive
)

func (a access) String() string {
	if a == exclusive {
		return "exclusive"
	}
	return "shared"
}

type outcome[T any] struct {
	val T
	err error
}

// do runs fn against the model under the requested access. The caller
// returns when fn completes or ctx ends, whichever is first; the locks are
// held until fn returns either way.
func do[T any](ctx context.Context, w *Worker, op string, mode access, fn func(Model) (T, error)) (T, error) {
	var zero T
	requestID := uuid.NewString()
	attrs := []attribute.KeyValue{attribute.String("fasttext.op", op), attribute.String("fasttext.access", mode.String())}
	ctx, span := w.tracer.Start(ctx, "fasttext."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append(attrs, attribute.String("request.id", requestID))...),
	)
	defer span.End()
	start := time.Now()

	finish := func(err error) {
		w.calls.Add(ctx, 1, metric.WithAttributes(attrs...))
		w.duration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
		if err != nil {
			w.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			w.log.Debug(ctx, "fasttext worker call failed", logging.Op(op), logging.RequestID(requestID), logging.Err(err))
		}
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			finish(err)
			return zero, err
		}
	}
	if mode == shared {
		if err := w.reads.Acquire(ctx, 1); err != nil {
			finish(err)
			return zero, err
		}
	}

	done := make(chan outcome[T], 1)
	go func() {
		if mode == shared {
			defer w.reads.Release(1)
			w.mu.RLock()
			defer w.mu.RUnlock()
		} else {
			w.mu.Lock()
			defer w.mu.Unlock()
		}
		if w.closed {
			done <- outcome[T]{err: ErrClosed}
			return
		}
		v, err := fn(w.model)
		done <- outcome[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		finish(r.err)
		return r.val, r.err
	case <-ctx.Done():
		err := ctx.Err()
		finish(err)
		return zero, err
	}
}

// Predict runs under the shared read limit.
func (w *Worker) Predict(ctx context.Context, text string, k int32, threshold float32) ([]fasttext.Prediction, error) {
	return do(ctx, w, "predict", shared, func(m Model) ([]fasttext.Prediction, error) {
		return m.Predict(text, k, threshold)
	})
}

// PredictBatch predicts every text concurrently within the read limit. The
// result at index i belongs to texts[i]. The first failure cancels the rest.
func (w *Worker) PredictBatch(ctx context.Context, texts []string, k int32, threshold float32) ([][]fasttext.Prediction, error) {
	out := make([][]fasttext.Prediction, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(w.maxReads))
	for i, text := range texts {
		g.Go(func() error {
			preds, err := w.Predict(gctx, text, k, threshold)
			if err != nil {
				return err
			}
			out[i] = preds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// NearestNeighbors runs exclusively; the engine caches state between
// neighbor queries.
func (w *Worker) NearestNeighbors(ctx context.Context, word string, k int32) ([]fasttext.Neighbor, error) {
	return do(ctx, w, "nearest_neighbors", exclusive, func(m Model) ([]fasttext.Neighbor, error) {
		return m.NearestNeighbors(word, k)
	})
}

// Analogies runs exclusively, like NearestNeighbors.
func (w *Worker) Analogies(ctx context.Context, a, b, c string, k int32) ([]fasttext.Neighbor, error) {
	return do(ctx, w, "analogies", exclusive, func(m Model) ([]fasttext.Neighbor, error) {
		return m.Analogies(a, b, c, k)
	})
}

// WordID runs under the shared read limit.
func (w *Worker) WordID(ctx context.Context, word string) (int32, error) {
	return do(ctx, w, "word_id", shared, func(m Model) (int32, error) { return m.WordID(word) })
}

// SubwordID runs under the shared read limit.
func (w *Worker) SubwordID(ctx context.Context, subword string) (int32, error) {
	return do(ctx, w, "subword_id", shared, func(m Model) (int32, error) { return m.SubwordID(subword) })
}

// Dimension runs under the shared read limit.
func (w *Worker) Dimension(ctx context.Context) (int, error) {
	return do(ctx, w, "dimension", shared, func(m Model) (int, error) { return m.Dimension() })
}

// WordVector runs under the shared read limit.
func (w *Worker) WordVector(ctx context.Context, word string) ([]float32, error) {
	return do(ctx, w, "word_vector", shared, func(m Model) ([]float32, error) { return m.WordVector(word) })
}

// SentenceVector runs under the shared read limit.
func (w *Worker) SentenceVector(ctx context.Context, text string) ([]float32, error) {
	return do(ctx, w, "sentence_vector", shared, func(m Model) ([]float32, error) { return m.SentenceVector(text) })
}

// LoadModel replaces the model from a file. It waits for in-flight calls and
// blocks new ones until the load finishes.
func (w *Worker) LoadModel(ctx context.Context, path string) error {
	_, err := do(ctx, w, "load_model", exclusive, func(m Model) (struct{}, error) {
		return struct{}{}, m.LoadModel(path)
	})
	return err
}

// LoadModelFromBuffer is LoadModel for an in-memory image.
func (w *Worker) LoadModelFromBuffer(ctx context.Context, data []byte) error {
	_, err := do(ctx, w, "load_model_from_buffer", exclusive, func(m Model) (struct{}, error) {
		return struct{}{}, m.LoadModelFromBuffer(data)
	})
	return err
}

// Reload fetches a model image from src and loads it in place. Queries wait
// until the new model is in place.
func (w *Worker) Reload(ctx context.Context, src modelsource.Source) error {
	_, err := do(ctx, w, "reload", exclusive, func(m Model) (struct{}, error) {
		return struct{}{}, m.LoadFrom(context.WithoutCancel(ctx), src)
	})
	if err == nil {
		w.log.Info(ctx, "fasttext worker reloaded model", logging.Source(src))
	}
	return err
}

// SaveModel writes the model to path with every other call held off.
func (w *Worker) SaveModel(ctx context.Context, path string) error {
	_, err := do(ctx, w, "save_model", exclusive, func(m Model) (struct{}, error) {
		return struct{}{}, m.SaveModel(path)
	})
	return err
}

// SaveTo writes the model to sink under name with every other call held
// off. Cancelling ctx abandons the wait but not a save already underway.
func (w *Worker) SaveTo(ctx context.Context, sink modelsource.Sink, name string) error {
	_, err := do(ctx, w, "save_to", exclusive, func(m Model) (struct{}, error) {
		return struct{}{}, m.SaveTo(context.WithoutCancel(ctx), sink, name)
	})
	return err
}

// Swap installs next and returns the previous model, which the caller now
// owns. It waits for in-flight calls.
func (w *Worker) Swap(next Model) (Model, error) {
	if next == nil {
		return nil, fasttext.ErrInvalidArgument
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil, ErrClosed
	}
	prev := w.model
	w.model = next
	w.log.Info(context.Background(), "fasttext worker swapped model")
	return prev, nil
}

// Close waits for in-flight calls and closes the model. It is safe to call
// more than once.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.model.Close()
}
