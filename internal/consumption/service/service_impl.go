package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/smallbiznis/gridpulse/internal/consumption/domain"
	"github.com/smallbiznis/gridpulse/internal/consumption/repository"
	"github.com/smallbiznis/gridpulse/internal/consumption/stats"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	historyWindow    time.Duration
	statisticsWindow time.Duration
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:              p.Log.Named("consumption.service"),
		genID:            p.GenID,
		clock:            p.Clock,
		repo:             repository.Provide(p.DB),
		historyWindow:    p.Config.Query.HistoryWindow,
		statisticsWindow: p.Config.Query.StatisticsWindow,
	}
}

// Record persists one reading. The caller owns the write deadline.
func (s *Service) Record(ctx context.Context, reading domain.Reading) (*domain.ConsumptionRecord, error) {
	record := reading.Record(s.genID.Generate())
	if err := s.repo.Insert(ctx, &record); err != nil {
		return &record, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}
	return &record, nil
}

func (s *Service) Latest(ctx context.Context, homeID string) (*domain.ConsumptionRecord, error) {
	homeID = strings.TrimSpace(homeID)
	if homeID == "" {
		return nil, domain.ErrInvalidHomeID
	}
	record, err := s.repo.Latest(ctx, homeID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrRecordNotFound
	}
	return record, nil
}

// History returns readings for a home inside the trailing window, oldest first.
func (s *Service) History(ctx context.Context, req domain.HistoryRequest) ([]*domain.ConsumptionRecord, error) {
	homeID := strings.TrimSpace(req.HomeID)
	if homeID == "" {
		return nil, domain.ErrInvalidHomeID
	}
	window, err := resolveWindow(req.Window, s.historyWindow)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	records, err := s.repo.ListByHomeBetween(ctx, homeID, now.Add(-window), now)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*domain.ConsumptionRecord{}
	}
	return records, nil
}

// Statistics rescans the trailing window on every call. Writes landing
// during the scan may or may not be included.
func (s *Service) Statistics(ctx context.Context, req domain.StatisticsRequest) (domain.Statistics, error) {
	window, err := resolveWindow(req.Window, s.statisticsWindow)
	if err != nil {
		return domain.Statistics{}, err
	}
	now := s.clock.Now()
	records, err := s.repo.ListBetween(ctx, now.Add(-window), now)
	if err != nil {
		return domain.Statistics{}, err
	}
	s.log.Debug("statistics computed",
		zap.Duration("window", window),
		zap.Int("records", len(records)),
	)
	return stats.Aggregate(records), nil
}

func resolveWindow(requested, def time.Duration) (time.Duration, error) {
	if requested < 0 {
		return 0, domain.ErrInvalidWindow
	}
	if requested == 0 {
		requested = def
	}
	if requested <= 0 {
		requested = 24 * time.Hour
	}
	return requested, nil
}
