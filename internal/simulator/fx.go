package simulator

import (
	"context"

	"github.com/smallbiznis/gridpulse/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("simulator",
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) {
	log = log.Named("simulator")

	var (
		pub    *MQTTPublisher
		cancel context.CancelFunc
		done   = make(chan struct{})
	)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			pub, err = DialMQTT(ctx, cfg.MQTT, log)
			if err != nil {
				return err
			}
			sim := New(pub,
				WithHomes(cfg.Simulator.Homes),
				WithInterval(cfg.Simulator.Interval),
				WithLogger(log),
			)
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go func() {
				defer close(done)
				_ = sim.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel == nil {
				return nil
			}
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return pub.Close(ctx)
		},
	})
}
