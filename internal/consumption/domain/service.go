package domain

import (
	"context"
	"time"
)

type HistoryRequest struct {
	HomeID string
	// Window is the trailing duration; zero selects the configured default.
	Window time.Duration
}

type StatisticsRequest struct {
	Window time.Duration
}

// Repository persists and queries consumption records.
type Repository interface {
	Insert(ctx context.Context, record *ConsumptionRecord) error
	Latest(ctx context.Context, homeID string) (*ConsumptionRecord, error)
	// ListByHomeBetween and ListBetween include both bounds.
	ListByHomeBetween(ctx context.Context, homeID string, from, to time.Time) ([]*ConsumptionRecord, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*ConsumptionRecord, error)
}

// Service records readings and answers the consumption queries.
type Service interface {
	Record(ctx context.Context, reading Reading) (*ConsumptionRecord, error)
	Latest(ctx context.Context, homeID string) (*ConsumptionRecord, error)
	History(ctx context.Context, req HistoryRequest) ([]*ConsumptionRecord, error)
	Statistics(ctx context.Context, req StatisticsRequest) (Statistics, error)
}
