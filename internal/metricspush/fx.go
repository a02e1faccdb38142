package metricspush

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/gridpulse/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultInterval = time.Minute

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, cfg config.Config, pusher Pusher, logger *zap.Logger) {
	if pusher == nil {
		return
	}
	logger = logger.Named("metrics.push")
	interval := cfg.MetricPush.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	worker := NewWorker(pusher, prometheus.DefaultGatherer, interval, logger)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting metrics push worker",
				zap.String("exporter", cfg.MetricPush.Exporter),
				zap.Duration("interval", interval),
			)
			worker.Start()
			return nil
		},
		OnStop: worker.Stop,
	})
}

// Worker pushes on a fixed interval and once more on stop.
type Worker struct {
	pusher   Pusher
	gatherer prometheus.Gatherer
	interval time.Duration
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(pusher Pusher, gatherer prometheus.Gatherer, interval time.Duration, log *zap.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		pusher:   pusher,
		gatherer: gatherer,
		interval: interval,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start() {
	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.push(w.ctx, "periodic")
			case <-w.ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and flushes a final snapshot within ctx.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.push(ctx, "final")
	return nil
}

func (w *Worker) push(ctx context.Context, kind string) {
	pushCtx, cancel := context.WithTimeout(ctx, defaultPushTimeout)
	defer cancel()
	if err := w.pusher.Push(pushCtx, w.gatherer); err != nil {
		w.log.Warn("metrics push failed", zap.String("kind", kind), zap.Error(err))
	}
}
