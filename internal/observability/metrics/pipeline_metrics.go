package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	PersistReasonDeadlineExceeded     = "deadline_exceeded"
	PersistReasonDBLockTimeout        = "db_lock_timeout"
	PersistReasonSerializationFailure = "serialization_failure"
	PersistReasonUniqueViolation      = "unique_violation"
	PersistReasonDBUnavailable        = "db_unavailable"
	PersistReasonUnknown              = "unknown"
)

const (
	CollectionRecords = "consumption_records"
	CollectionAlerts  = "alerts"
)

const (
	OutcomeProcessed = "processed"
	OutcomeRejected  = "rejected"
	OutcomeDegraded  = "degraded"
)

// PipelineMetrics captures ingestion and fanout health signals scraped from /metrics.
type PipelineMetrics struct {
	messagesReceived *prometheus.CounterVec
	messagesRejected *prometheus.CounterVec
	persisted        *prometheus.CounterVec
	persistErrors    *prometheus.CounterVec
	published        *prometheus.CounterVec
	alertsRaised     *prometheus.CounterVec
	broadcastDropped *prometheus.CounterVec
	subscribers      prometheus.Gauge
	queueDepth       prometheus.Gauge
	processDuration  *prometheus.HistogramVec
}

var (
	pipelineMetricsOnce sync.Once
	pipelineMetrics     *PipelineMetrics
)

// PipelineWithConfig returns the singleton pipeline metrics registry using config labels.
func PipelineWithConfig(cfg Config) *PipelineMetrics {
	pipelineMetricsOnce.Do(func() {
		pipelineMetrics = newPipelineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return pipelineMetrics
}

// NewPipelineMetricsForRegistry builds an unshared instance, mainly for tests.
func NewPipelineMetricsForRegistry(registerer prometheus.Registerer, cfg Config) *PipelineMetrics {
	return newPipelineMetrics(registerer, cfg)
}

func newPipelineMetrics(registerer prometheus.Registerer, cfg Config) *PipelineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "gridpulse"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	messagesReceived := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gridpulse_messages_received_total",
		Help:        "Raw telemetry messages received by source.",
		ConstLabels: constLabels,
	}, []string{"source"})
	messagesRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gridpulse_messages_rejected_total",
		Help:        "Telemetry messages discarded before evaluation by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	persisted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gridpulse_persisted_total",
		Help:        "Successful store writes by collection.",
		ConstLabels: constLabels,
	}, []string{"collection"})
	persistErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gridpulse_persist_errors_total",
		Help:        "Store write failures by collection and reason.",
		ConstLabels: constLabels,
	}, []string{"collection", "reason"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gridpulse_broadcast_published_total",
		Help:        "Events handed to the broadcast fanout by type.",
		ConstLabels: constLabels,
	}, []string{"event_type"})
	alertsRaised := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gridpulse_alerts_raised_total",
		Help:        "Threshold alerts raised by level.",
		ConstLabels: constLabels,
	}, []string{"level"})
	broadcastDropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "gridpulse_broadcast_dropped_total",
		Help:        "Events dropped for subscribers whose buffer was full.",
		ConstLabels: constLabels,
	}, []string{"event_type"})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "gridpulse_broadcast_subscribers",
		Help:        "Currently attached broadcast subscribers.",
		ConstLabels: constLabels,
	})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "gridpulse_ingest_queue_depth",
		Help:        "Messages waiting for an ingest worker.",
		ConstLabels: constLabels,
	})
	processDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "gridpulse_ingest_process_duration_seconds",
		Help:        "Time to take a message through validation, persistence and fanout.",
		Buckets:     []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"outcome"})

	registerer.MustRegister(
		messagesReceived,
		messagesRejected,
		persisted,
		persistErrors,
		published,
		alertsRaised,
		broadcastDropped,
		subscribers,
		queueDepth,
		processDuration,
	)

	return &PipelineMetrics{
		messagesReceived: messagesReceived,
		messagesRejected: messagesRejected,
		persisted:        persisted,
		persistErrors:    persistErrors,
		published:        published,
		alertsRaised:     alertsRaised,
		broadcastDropped: broadcastDropped,
		subscribers:      subscribers,
		queueDepth:       queueDepth,
		processDuration:  processDuration,
	}
}

func (m *PipelineMetrics) IncReceived(source string) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(source).Inc()
}

func (m *PipelineMetrics) IncRejected(reason string) {
	if m == nil {
		return
	}
	m.messagesRejected.WithLabelValues(reason).Inc()
}

func (m *PipelineMetrics) IncPersisted(collection string) {
	if m == nil {
		return
	}
	m.persisted.WithLabelValues(collection).Inc()
}

// IncPersistError classifies err and increments the matching series.
func (m *PipelineMetrics) IncPersistError(collection string, err error) {
	if m == nil || err == nil {
		return
	}
	m.persistErrors.WithLabelValues(collection, ClassifyPersistReason(err)).Inc()
}

func (m *PipelineMetrics) IncPublished(eventType string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(eventType).Inc()
}

func (m *PipelineMetrics) IncAlert(level string) {
	if m == nil {
		return
	}
	m.alertsRaised.WithLabelValues(level).Inc()
}

func (m *PipelineMetrics) IncBroadcastDropped(eventType string) {
	if m == nil {
		return
	}
	m.broadcastDropped.WithLabelValues(eventType).Inc()
}

func (m *PipelineMetrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

func (m *PipelineMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *PipelineMetrics) ObserveProcess(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	if duration < 0 {
		duration = 0
	}
	m.processDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ClassifyPersistReason maps store errors to low-cardinality reasons.
func ClassifyPersistReason(err error) string {
	if err == nil {
		return PersistReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return PersistReasonDeadlineExceeded
	}
	if hasPGCode(err, "55P03") {
		return PersistReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return PersistReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return PersistReasonUniqueViolation
	}
	if errors.Is(err, gorm.ErrInvalidDB) || hasPGClass(err, "08") || hasPGClass(err, "57") {
		return PersistReasonDBUnavailable
	}
	return PersistReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func hasPGClass(err error, class string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, class)
	}
	return false
}
