package broadcast

import (
	"context"

	"github.com/smallbiznis/gridpulse/internal/config"
	obsmetrics "github.com/smallbiznis/gridpulse/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("broadcast",
	fx.Provide(provideHub),
	fx.Provide(func(h *Hub) Publisher { return h }),
)

type hubParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
	Metrics   *obsmetrics.PipelineMetrics `optional:"true"`
}

func provideHub(p hubParams) *Hub {
	hub := NewHub(
		WithSubscriberBuffer(p.Config.Broadcast.SubscriberBuffer),
		WithLogger(p.Log.Named("broadcast.hub")),
		WithMetrics(p.Metrics),
	)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			hub.Close()
			return nil
		},
	})
	return hub
}
