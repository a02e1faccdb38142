package domain

import (
	"context"
	"errors"
)

type ListAlertsRequest struct {
	// HomeID optionally narrows the result to one home.
	HomeID string
	// Limit is the maximum number of alerts; zero selects the default.
	Limit int
}

type Repository interface {
	Insert(ctx context.Context, alert *Alert) error
	Recent(ctx context.Context, homeID string, limit int) ([]*Alert, error)
}

type Service interface {
	// Record assigns an id and persists the alert.
	Record(ctx context.Context, alert *Alert) error
	// List returns the most recent alerts, newest first.
	List(ctx context.Context, req ListAlertsRequest) ([]*Alert, error)
}

var (
	ErrInvalidLimit       = errors.New("invalid_limit")
	ErrInvalidThresholds  = errors.New("invalid_thresholds")
	ErrPersistenceFailure = errors.New("alert_persistence_failure")
)
