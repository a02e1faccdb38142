package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gridpulse/internal/cache"
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/home/domain"
	"github.com/smallbiznis/gridpulse/internal/home/repository"
	"github.com/smallbiznis/gridpulse/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Cache cache.HomeRegistryCache `optional:"true"`
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	cache cache.HomeRegistryCache
}

func NewService(p ServiceParam) domain.Service {
	registryCache := p.Cache
	if registryCache == nil {
		registryCache = cache.NewHomeRegistryCache()
	}
	return &Service{
		log:   p.Log.Named("home.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  repository.Provide(p.DB),
		cache: registryCache,
	}
}

func (s *Service) List(ctx context.Context) ([]*domain.Home, error) {
	homes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if homes == nil {
		homes = []*domain.Home{}
	}
	return homes, nil
}

func (s *Service) Get(ctx context.Context, homeID string) (*domain.Home, error) {
	homeID = strings.TrimSpace(homeID)
	if homeID == "" {
		return nil, domain.ErrInvalidHomeID
	}
	home, err := s.repo.FindByHomeID(ctx, homeID)
	if err != nil {
		return nil, err
	}
	if home == nil {
		return nil, domain.ErrHomeNotFound
	}
	return home, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateHomeRequest) (*domain.Home, error) {
	homeID := strings.TrimSpace(req.HomeID)
	if homeID == "" || strings.ContainsAny(homeID, "/+#") {
		return nil, domain.ErrInvalidHomeID
	}

	existing, err := s.repo.FindByHomeID(ctx, homeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrHomeExists
	}

	home := &domain.Home{
		ID:        s.genID.Generate(),
		HomeID:    homeID,
		Address:   strings.TrimSpace(req.Address),
		Owner:     strings.TrimSpace(req.Owner),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, home); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrHomeExists
		}
		return nil, err
	}

	s.cache.Remember(homeID, true)
	s.log.Info("home registered", zap.String("home_id", homeID))
	return home, nil
}

func (s *Service) Exists(ctx context.Context, homeID string) (bool, error) {
	homeID = strings.TrimSpace(homeID)
	if homeID == "" {
		return false, nil
	}
	if exists, ok := s.cache.Known(homeID); ok {
		return exists, nil
	}
	home, err := s.repo.FindByHomeID(ctx, homeID)
	if err != nil {
		return false, err
	}
	s.cache.Remember(homeID, home != nil)
	return home != nil, nil
}
