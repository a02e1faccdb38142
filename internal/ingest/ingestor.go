package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
	obsmetrics "github.com/smallbiznis/gridpulse/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	DefaultWorkers   = 8
	DefaultQueueSize = 1024
)

var (
	ErrQueueClosed = errors.New("ingest_queue_closed")
	ErrQueueFull   = errors.New("ingest_queue_full")
)

// Submitter accepts raw messages for asynchronous processing.
type Submitter interface {
	Submit(ctx context.Context, msg consumptiondomain.RawMessage) error
}

type job struct {
	ctx context.Context
	msg consumptiondomain.RawMessage
}

// Ingestor feeds a bounded queue into a fixed pool of workers running the
// pipeline. Submit blocks while the queue is full.
type Ingestor struct {
	pipeline  *Pipeline
	workers   int
	queue     chan job
	stopping  chan struct{}
	log       *zap.Logger
	metrics   *obsmetrics.PipelineMetrics
	onOutcome func(Outcome)

	mu       sync.RWMutex
	started  bool
	closed   bool
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type IngestorOption func(*Ingestor)

func WithWorkers(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.workers = n
		}
	}
}

func WithQueueSize(n int) IngestorOption {
	return func(i *Ingestor) {
		if n > 0 {
			i.queue = make(chan job, n)
		}
	}
}

func WithIngestorLogger(log *zap.Logger) IngestorOption {
	return func(i *Ingestor) {
		if log != nil {
			i.log = log
		}
	}
}

func WithQueueMetrics(m *obsmetrics.PipelineMetrics) IngestorOption {
	return func(i *Ingestor) {
		i.metrics = m
	}
}

// WithOutcomeHook is called by workers after each message.
func WithOutcomeHook(fn func(Outcome)) IngestorOption {
	return func(i *Ingestor) {
		i.onOutcome = fn
	}
}

func NewIngestor(pipeline *Pipeline, opts ...IngestorOption) *Ingestor {
	i := &Ingestor{
		pipeline: pipeline,
		workers:  DefaultWorkers,
		queue:    make(chan job, DefaultQueueSize),
		stopping: make(chan struct{}),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Start launches the workers. Calling it twice is a no-op.
func (i *Ingestor) Start() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.started || i.closed {
		return
	}
	i.started = true
	for n := 0; n < i.workers; n++ {
		i.wg.Add(1)
		go i.work(n)
	}
	i.log.Info("ingest workers started",
		zap.Int("workers", i.workers),
		zap.Int("queue_size", cap(i.queue)),
	)
}

// Submit enqueues msg, waiting for room until ctx is done or the ingestor
// stops. Request-scoped values on ctx travel with the message but its
// cancellation does not.
func (i *Ingestor) Submit(ctx context.Context, msg consumptiondomain.RawMessage) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrQueueClosed
	}
	j := job{ctx: context.WithoutCancel(ctx), msg: msg}
	select {
	case i.queue <- j:
		i.metrics.SetQueueDepth(len(i.queue))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-i.stopping:
		return ErrQueueClosed
	}
}

// TrySubmit enqueues msg without waiting.
func (i *Ingestor) TrySubmit(ctx context.Context, msg consumptiondomain.RawMessage) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return ErrQueueClosed
	}
	select {
	case i.queue <- job{ctx: context.WithoutCancel(ctx), msg: msg}:
		i.metrics.SetQueueDepth(len(i.queue))
		return nil
	default:
		return ErrQueueFull
	}
}

// Depth returns the number of queued messages.
func (i *Ingestor) Depth() int {
	return len(i.queue)
}

// Stop refuses new messages, lets the workers drain what is already
// queued and waits for them until ctx is done.
func (i *Ingestor) Stop(ctx context.Context) error {
	i.stopOnce.Do(func() {
		close(i.stopping)
		i.mu.Lock()
		i.closed = true
		close(i.queue)
		started := i.started
		i.mu.Unlock()
		if !started {
			// Nobody will drain; discard what was queued.
			for range i.queue {
			}
		}
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		i.log.Info("ingest workers stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain ingest queue: %w", ctx.Err())
	}
}

func (i *Ingestor) work(n int) {
	defer i.wg.Done()
	for j := range i.queue {
		i.metrics.SetQueueDepth(len(i.queue))
		i.process(n, j)
	}
}

func (i *Ingestor) process(worker int, j job) {
	defer func() {
		if r := recover(); r != nil {
			i.log.Error("ingest worker recovered from panic",
				zap.Int("worker", worker),
				zap.String("topic", j.msg.Topic),
				zap.Any("panic", r),
			)
		}
	}()
	out := i.pipeline.Process(j.ctx, j.msg)
	if i.onOutcome != nil {
		i.onOutcome(out)
	}
}
