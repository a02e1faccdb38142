package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gridpulse/internal/alert/domain"
	"github.com/smallbiznis/gridpulse/internal/alert/repository"
	"github.com/smallbiznis/gridpulse/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxListLimit = 500

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Config config.Config
}

type Service struct {
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	defaultLimit int
}

func NewService(p ServiceParam) domain.Service {
	limit := p.Config.Query.AlertsDefaultSize
	if limit <= 0 {
		limit = 50
	}
	return &Service{
		log:          p.Log.Named("alert.service"),
		genID:        p.GenID,
		repo:         repository.Provide(p.DB),
		defaultLimit: limit,
	}
}

func (s *Service) Record(ctx context.Context, alert *domain.Alert) error {
	if alert.ID == 0 {
		alert.ID = s.genID.Generate()
	}
	if err := s.repo.Insert(ctx, alert); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListAlertsRequest) ([]*domain.Alert, error) {
	limit := req.Limit
	switch {
	case limit < 0 || limit > maxListLimit:
		return nil, domain.ErrInvalidLimit
	case limit == 0:
		limit = s.defaultLimit
	}
	alerts, err := s.repo.Recent(ctx, req.HomeID, limit)
	if err != nil {
		return nil, err
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}
	return alerts, nil
}
