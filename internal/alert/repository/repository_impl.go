package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/gridpulse/internal/alert/domain"
	"github.com/smallbiznis/gridpulse/pkg/db/option"
	"github.com/smallbiznis/gridpulse/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[domain.Alert]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.Alert](db)}
}

func (r *repo) Insert(ctx context.Context, alert *domain.Alert) error {
	return r.store.Create(ctx, alert)
}

func (r *repo) Recent(ctx context.Context, homeID string, limit int) ([]*domain.Alert, error) {
	var filter *domain.Alert
	if homeID = strings.TrimSpace(homeID); homeID != "" {
		filter = &domain.Alert{HomeID: homeID}
	}
	return r.store.Find(ctx, filter,
		option.ApplyOrder("timestamp DESC, id DESC"),
		option.ApplyLimit(limit),
	)
}
