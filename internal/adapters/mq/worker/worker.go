// Package worker runs the pool that handles post-commit score events.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
	"github.com/willcagas/goose-trials-sub001/pkg/metrics"
)

// Event is what workers read off the queue.
type Event = model.ScoreEvent

// Handler reacts to a committed score, e.g. by invalidating cached views.
type Handler interface {
	HandleScoreEvent(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

// HandleScoreEvent calls f.
func (f HandlerFunc) HandleScoreEvent(ctx context.Context, e Event) error { return f(ctx, e) }

// Queue defines how workers receive events. The channel is closed when the queue shuts down.
type Queue interface {
	Dequeue() <-chan Event
}

// InMemoryWorker drains the queue until it is closed or the context ends.
type InMemoryWorker struct {
	queue   Queue
	handler Handler
	name    string
	done    chan struct{}
	logger  logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, h Handler, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		handler: h,
		name:    "worker",
		done:    make(chan struct{}),
		logger:  logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run processes events until the queue channel closes or ctx is canceled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			w.process(ctx, e)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, e Event) { //nolint:gocritic // hugeParam: Event is passed by value for channel semantics
	start := time.Now()
	err := w.handler.HandleScoreEvent(ctx, e)
	metrics.RecordWorkerEvent(float64(time.Since(start).Microseconds())/1000, err)
	if err != nil {
		w.logger.Error(ctx, "handling score event failed",
			logger.String("score_id", e.ScoreID),
			logger.String("game", e.GameID),
			logger.Error(err),
		)
	}
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
	once    sync.Once
}

// NewPool creates workerCount workers. A count below 1 uses one per CPU.
func NewPool(workerCount int, q Queue, h Handler) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, h, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue so workers drain what is buffered, then waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(err))
			}
		}
	})

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	return nil
}
