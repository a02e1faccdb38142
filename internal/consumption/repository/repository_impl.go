package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/gridpulse/internal/consumption/domain"
	"github.com/smallbiznis/gridpulse/pkg/db/option"
	"github.com/smallbiznis/gridpulse/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[domain.ConsumptionRecord]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.ConsumptionRecord](db)}
}

func (r *repo) Insert(ctx context.Context, record *domain.ConsumptionRecord) error {
	return r.store.Create(ctx, record)
}

func (r *repo) Latest(ctx context.Context, homeID string) (*domain.ConsumptionRecord, error) {
	return r.store.FindOne(ctx,
		&domain.ConsumptionRecord{HomeID: homeID},
		option.ApplyOrder("timestamp DESC, id DESC"),
	)
}

func (r *repo) ListByHomeBetween(ctx context.Context, homeID string, from, to time.Time) ([]*domain.ConsumptionRecord, error) {
	return r.store.Find(ctx,
		&domain.ConsumptionRecord{HomeID: homeID},
		option.ApplyBetween("timestamp", from, to),
		option.ApplyOrder("timestamp ASC, id ASC"),
	)
}

func (r *repo) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.ConsumptionRecord, error) {
	return r.store.Find(ctx, nil,
		option.ApplyBetween("timestamp", from, to),
		option.ApplyOrder("timestamp ASC, id ASC"),
	)
}
