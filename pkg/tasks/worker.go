package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/logging"
	"github.com/cloudlaunch/cloudlaunch-go/pkg/telemetry"
)

var log = logging.New("tasks")

// Func runs one task. The returned value is stored as the task result.
type Func func(ctx context.Context, r *Reporter, payload json.RawMessage) (interface{}, error)

// Registry maps task names to functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

// Reporter lets a running task publish progress.
type Reporter struct {
	id      string
	results ResultBackend
}

func (r *Reporter) TaskID() string { return r.id }

// Progress records a PROGRESSING state with {"action": action}. Failures
// to record are logged; progress is advisory.
func (r *Reporter) Progress(ctx context.Context, action string) {
	err := r.results.SetState(ctx, r.id, StateProgressing, map[string]interface{}{"action": action})
	if err != nil {
		log.WithError(err).WithField("task", r.id).Warn("failed to record progress")
	}
	log.WithField("task", r.id).Info(action)
}

// Worker pulls tasks from a broker and runs them on a fixed number of
// goroutines.
type Worker struct {
	broker      Broker
	results     ResultBackend
	registry    *Registry
	concurrency int

	// PollInterval bounds each Dequeue so that cancellation is noticed
	// promptly.
	PollInterval time.Duration
}

func NewWorker(b Broker, results ResultBackend, registry *Registry, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		broker:       b,
		results:      results,
		registry:     registry,
		concurrency:  concurrency,
		PollInterval: time.Second,
	}
}

// Run blocks until ctx is cancelled. In-flight tasks finish first, under a
// context that is not cancelled with ctx.
func (w *Worker) Run(ctx context.Context) error {
	log.Infof("worker started with concurrency %d", w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w.loop(ctx, n)
		}(i)
	}
	wg.Wait()

	log.Info("worker stopped")
	return nil
}

func (w *Worker) loop(ctx context.Context, n int) {
	for {
		if ctx.Err() != nil {
			return
		}
		t, err := w.broker.Dequeue(ctx, w.PollInterval)
		switch {
		case errors.Is(err, ErrNoTask):
			continue
		case ctx.Err() != nil:
			return
		case err != nil:
			log.WithError(err).WithField("goroutine", n).Error("dequeue failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.PollInterval):
			}
			continue
		}
		w.Execute(context.WithoutCancel(ctx), t)
	}
}

// Execute runs a single task and records its outcome.
func (w *Worker) Execute(ctx context.Context, t *Task) {
	ctx, span := telemetry.Tracer().Start(ctx, "task "+t.Name,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(attribute.String("task.id", t.ID), attribute.String("task.name", t.Name)))
	defer span.End()

	logger := log.WithField("task", t.ID).WithField("name", t.Name)
	start := time.Now()

	result, err := w.run(ctx, t)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.WithError(err).WithField("elapsed", time.Since(start)).Error("task failed")
		if serr := w.results.SetFailure(ctx, t.ID, err); serr != nil {
			logger.WithError(serr).Error("failed to record task failure")
		}
		return
	}

	logger.WithField("elapsed", time.Since(start)).Info("task succeeded")
	if serr := w.results.SetResult(ctx, t.ID, result); serr != nil {
		logger.WithError(serr).Error("failed to record task result")
	}
}

func (w *Worker) run(ctx context.Context, t *Task) (result interface{}, err error) {
	fn, ok := w.registry.Get(t.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, t.Name)
	}
	if err := w.results.SetState(ctx, t.ID, StateStarted, nil); err != nil {
		return nil, err
	}

	defer func() {
		if p := recover(); p != nil {
			log.WithField("task", t.ID).Errorf("task panicked: %v\n%s", p, debug.Stack())
			result, err = nil, fmt.Errorf("task panicked: %v", p)
		}
	}()
	return fn(ctx, &Reporter{id: t.ID, results: w.results}, t.Payload)
}
