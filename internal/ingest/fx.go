package ingest

import (
	"context"

	alertdomain "github.com/smallbiznis/gridpulse/internal/alert/domain"
	"github.com/smallbiznis/gridpulse/internal/alert/engine"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	"github.com/smallbiznis/gridpulse/internal/config"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
	"github.com/smallbiznis/gridpulse/internal/consumption/validator"
	homedomain "github.com/smallbiznis/gridpulse/internal/home/domain"
	obsmetrics "github.com/smallbiznis/gridpulse/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ingest",
	fx.Provide(NewPipelineFromParams),
	fx.Provide(provideIngestor),
	fx.Provide(func(i *Ingestor) Submitter { return i }),
)

type PipelineParams struct {
	fx.In

	Config      config.Config
	Log         *zap.Logger
	Validator   *validator.Validator
	Records     consumptiondomain.Service
	Alerts      alertdomain.Service
	Engine      *engine.Engine
	Publisher   broadcast.Publisher
	Homes       homedomain.Service          `optional:"true"`
	Metrics     *obsmetrics.PipelineMetrics `optional:"true"`
	OtelMetrics *obsmetrics.Metrics         `optional:"true"`
}

func NewPipelineFromParams(p PipelineParams) *Pipeline {
	opts := []PipelineOption{
		WithLogger(p.Log.Named("ingest.pipeline")),
		WithPersistTimeout(p.Config.Ingest.PersistTimeout),
		WithMetrics(p.Metrics, p.OtelMetrics),
	}
	if p.Config.Ingest.ValidateHomes && p.Homes != nil {
		opts = append(opts, WithHomeValidation(p.Homes))
	}
	return NewPipeline(p.Validator, p.Records, p.Alerts, p.Engine, p.Publisher, opts...)
}

type ingestorParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
	Pipeline  *Pipeline
	Metrics   *obsmetrics.PipelineMetrics `optional:"true"`
}

func provideIngestor(p ingestorParams) *Ingestor {
	ing := NewIngestor(p.Pipeline,
		WithWorkers(p.Config.Ingest.Workers),
		WithQueueSize(p.Config.Ingest.QueueSize),
		WithIngestorLogger(p.Log.Named("ingest.workers")),
		WithQueueMetrics(p.Metrics),
	)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ing.Start()
			return nil
		},
		OnStop: ing.Stop,
	})
	return ing
}
