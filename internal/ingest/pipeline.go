// Package ingest turns raw telemetry messages into persisted readings,
// alerts and broadcast events.
package ingest

import (
	"context"
	"errors"
	"time"

	alertdomain "github.com/smallbiznis/gridpulse/internal/alert/domain"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
	obscontext "github.com/smallbiznis/gridpulse/internal/observability/context"
	"github.com/smallbiznis/gridpulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gridpulse/internal/observability/metrics"
	"github.com/smallbiznis/gridpulse/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const DefaultPersistTimeout = 2 * time.Second

// Stage is the last step a message reached.
type Stage string

const (
	StageReceived       Stage = "received"
	StageRejected       Stage = "rejected"
	StageValidated      Stage = "validated"
	StagePersisted      Stage = "persisted"
	StageEvaluated      Stage = "evaluated"
	StageAlertPersisted Stage = "alert_persisted"
	StageBroadcast      Stage = "broadcast"
	StageDone           Stage = "done"
)

type Validator interface {
	Validate(msg consumptiondomain.RawMessage) (consumptiondomain.Reading, error)
}

type RecordStore interface {
	Record(ctx context.Context, reading consumptiondomain.Reading) (*consumptiondomain.ConsumptionRecord, error)
}

type AlertStore interface {
	Record(ctx context.Context, alert *alertdomain.Alert) error
}

type AlertEvaluator interface {
	Evaluate(reading consumptiondomain.Reading) (alertdomain.Level, *alertdomain.Alert)
}

type HomeRegistry interface {
	Exists(ctx context.Context, homeID string) (bool, error)
}

// Outcome describes what happened to one message.
type Outcome struct {
	Stages []Stage
	// Err is the rejection reason or the first persistence failure.
	Err             error
	Reading         consumptiondomain.Reading
	Record          *consumptiondomain.ConsumptionRecord
	Alert           *alertdomain.Alert
	RecordPersisted bool
	AlertPersisted  bool
}

// Final returns the last stage reached.
func (o Outcome) Final() Stage {
	if len(o.Stages) == 0 {
		return StageReceived
	}
	return o.Stages[len(o.Stages)-1]
}

func (o Outcome) Rejected() bool {
	return o.Final() == StageRejected
}

func (o *Outcome) advance(stage Stage) {
	o.Stages = append(o.Stages, stage)
}

// Pipeline executes the per-message state machine. It holds no per-home
// state, so any number of goroutines may call Process concurrently.
type Pipeline struct {
	validator Validator
	records   RecordStore
	alerts    AlertStore
	engine    AlertEvaluator
	publisher broadcast.Publisher
	homes     HomeRegistry

	validateHomes  bool
	persistTimeout time.Duration

	log        *zap.Logger
	metrics    *obsmetrics.PipelineMetrics
	obsMetrics *obsmetrics.Metrics
}

type PipelineOption func(*Pipeline)

// WithHomeValidation rejects readings for homes missing from registry.
func WithHomeValidation(registry HomeRegistry) PipelineOption {
	return func(p *Pipeline) {
		p.homes = registry
		p.validateHomes = registry != nil
	}
}

func WithPersistTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d > 0 {
			p.persistTimeout = d
		}
	}
}

func WithLogger(log *zap.Logger) PipelineOption {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

func WithMetrics(m *obsmetrics.PipelineMetrics, om *obsmetrics.Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
		p.obsMetrics = om
	}
}

func NewPipeline(
	validator Validator,
	records RecordStore,
	alerts AlertStore,
	engine AlertEvaluator,
	publisher broadcast.Publisher,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		validator:      validator,
		records:        records,
		alerts:         alerts,
		engine:         engine,
		publisher:      publisher,
		persistTimeout: DefaultPersistTimeout,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process takes one message through validation, persistence, evaluation
// and broadcast. It never returns an error: failures are recorded on the
// outcome and surfaced through logs and metrics.
func (p *Pipeline) Process(ctx context.Context, msg consumptiondomain.RawMessage) Outcome {
	start := time.Now()
	out := Outcome{Stages: []Stage{StageReceived}}
	p.metrics.IncReceived(sourceLabel(msg.Source))
	p.obsMetrics.RecordReadingIngested(ctx, sourceLabel(msg.Source))

	ctx = obscontext.WithSource(ctx, msg.Source)
	ctx, span := tracing.StartSpan(ctx, "ingest.process", attribute.String("messaging.destination", msg.Topic))
	defer span.End()

	reading, err := p.validator.Validate(msg)
	if err == nil {
		err = p.checkHome(ctx, reading.HomeID)
	}
	if err != nil {
		out.advance(StageRejected)
		out.Err = err
		reason := consumptiondomain.Reason(err)
		p.metrics.IncRejected(reason)
		logger.WithContext(ctx, p.log).Debug("message rejected",
			zap.String("topic", msg.Topic),
			zap.String("reason", reason),
			zap.Error(err),
		)
		span.SetAttributes(attribute.String("ingest.rejected", reason))
		p.metrics.ObserveProcess(obsmetrics.OutcomeRejected, time.Since(start))
		return out
	}
	out.advance(StageValidated)
	out.Reading = reading

	ctx = obscontext.WithHomeID(ctx, reading.HomeID)
	log := logger.WithContext(ctx, p.log)

	record, err := p.persistRecord(ctx, reading)
	out.Record = record
	if err != nil {
		// The reading is still meaningful in memory; keep going.
		out.Err = err
		p.metrics.IncPersistError(obsmetrics.CollectionRecords, err)
		log.Warn("consumption record not persisted",
			zap.String("stage", string(StagePersisted)),
			zap.String("reason", obsmetrics.ClassifyPersistReason(err)),
			zap.Error(err),
		)
		span.RecordError(tracing.SafeError(err))
	} else {
		out.RecordPersisted = true
		out.advance(StagePersisted)
		p.metrics.IncPersisted(obsmetrics.CollectionRecords)
	}

	p.publish(ctx, broadcast.NewConsumptionUpdate(reading))

	level, alert := p.engine.Evaluate(reading)
	out.advance(StageEvaluated)
	span.SetAttributes(attribute.String("alert.level", string(level)))

	if alert != nil {
		out.Alert = alert
		p.metrics.IncAlert(string(level))
		p.obsMetrics.RecordAlertRaised(ctx, string(level))

		if err := p.persistAlert(ctx, alert); err != nil {
			if out.Err == nil {
				out.Err = err
			}
			p.metrics.IncPersistError(obsmetrics.CollectionAlerts, err)
			log.Warn("alert not persisted",
				zap.String("stage", string(StageAlertPersisted)),
				zap.String("level", string(level)),
				zap.String("reason", obsmetrics.ClassifyPersistReason(err)),
				zap.Error(err),
			)
			span.RecordError(tracing.SafeError(err))
		} else {
			out.AlertPersisted = true
			out.advance(StageAlertPersisted)
			p.metrics.IncPersisted(obsmetrics.CollectionAlerts)
		}

		p.publish(ctx, broadcast.NewAlert(alert))
		log.Info("alert raised",
			zap.String("level", string(level)),
			zap.Float64("value", alert.Value),
		)
	}
	out.advance(StageBroadcast)
	out.advance(StageDone)

	outcome := obsmetrics.OutcomeProcessed
	if out.Err != nil {
		outcome = obsmetrics.OutcomeDegraded
		span.SetStatus(codes.Error, "persistence failure")
	}
	p.metrics.ObserveProcess(outcome, time.Since(start))
	return out
}

func (p *Pipeline) checkHome(ctx context.Context, homeID string) error {
	if !p.validateHomes {
		return nil
	}
	exists, err := p.homes.Exists(ctx, homeID)
	if err != nil {
		// A registry outage must not stop ingestion.
		logger.WithContext(ctx, p.log).Warn("home registry lookup failed, accepting reading",
			zap.String("home_id", homeID),
			zap.Error(err),
		)
		return nil
	}
	if !exists {
		return consumptiondomain.ErrUnknownHome
	}
	return nil
}

func (p *Pipeline) persistRecord(ctx context.Context, reading consumptiondomain.Reading) (*consumptiondomain.ConsumptionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, p.persistTimeout)
	defer cancel()
	record, err := p.records.Record(ctx, reading)
	if err != nil && !errors.Is(err, consumptiondomain.ErrPersistenceFailure) {
		err = errors.Join(consumptiondomain.ErrPersistenceFailure, err)
	}
	return record, err
}

func (p *Pipeline) persistAlert(ctx context.Context, alert *alertdomain.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, p.persistTimeout)
	defer cancel()
	return p.alerts.Record(ctx, alert)
}

func (p *Pipeline) publish(ctx context.Context, event broadcast.Event) {
	if p.publisher == nil {
		return
	}
	p.publisher.Publish(event)
	p.metrics.IncPublished(string(event.Type))
	p.obsMetrics.RecordEventBroadcast(ctx, string(event.Type))
}

func sourceLabel(source string) string {
	if source == "" {
		return "unknown"
	}
	return source
}
