package repository

import (
	"context"

	"github.com/smallbiznis/gridpulse/internal/home/domain"
	"github.com/smallbiznis/gridpulse/pkg/db/option"
	"github.com/smallbiznis/gridpulse/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Repository[domain.Home]
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.Home](db)}
}

func (r *repo) Insert(ctx context.Context, home *domain.Home) error {
	return r.store.Create(ctx, home)
}

func (r *repo) BatchInsert(ctx context.Context, homes []*domain.Home) error {
	return r.store.BatchCreate(ctx, homes)
}

func (r *repo) List(ctx context.Context) ([]*domain.Home, error) {
	return r.store.Find(ctx, nil, option.ApplyOrder("home_id ASC"))
}

func (r *repo) FindByHomeID(ctx context.Context, homeID string) (*domain.Home, error) {
	return r.store.FindOne(ctx, &domain.Home{HomeID: homeID})
}

func (r *repo) Count(ctx context.Context) (int64, error) {
	return r.store.Count(ctx, nil)
}
