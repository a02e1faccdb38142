// Package simulator generates synthetic meter readings for local runs.
package simulator

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultHomes    = 10
	DefaultInterval = 5 * time.Second
	MinWatts        = 200.0
	MaxWatts        = 1500.0
)

// Publisher delivers one payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

type Simulator struct {
	publisher Publisher
	homes     []string
	interval  time.Duration
	log       *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Simulator)

func WithHomes(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.homes = HomeIDs(n)
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *Simulator) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Simulator) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSeed makes the generated sequence reproducible.
func WithSeed(seed int64) Option {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

func New(publisher Publisher, opts ...Option) *Simulator {
	s := &Simulator{
		publisher: publisher,
		homes:     HomeIDs(DefaultHomes),
		interval:  DefaultInterval,
		log:       zap.NewNop(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HomeIDs returns H001..Hnnn.
func HomeIDs(n int) []string {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		ids = append(ids, fmt.Sprintf("H%03d", i))
	}
	return ids
}

// Topic is the telemetry topic for homeID.
func Topic(homeID string) string {
	return "home/" + homeID + "/consumption"
}

// Run publishes one round per interval until ctx is done.
func (s *Simulator) Run(ctx context.Context) error {
	s.log.Info("simulator started",
		zap.Int("homes", len(s.homes)),
		zap.Duration("interval", s.interval),
	)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("simulator stopped")
			return nil
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick publishes one reading per home and returns how many were delivered.
func (s *Simulator) Tick(ctx context.Context) int {
	sent := 0
	for _, homeID := range s.homes {
		watts := s.nextWatts()
		payload := strconv.FormatFloat(watts, 'f', 2, 64)
		topic := Topic(homeID)
		if err := s.publisher.Publish(ctx, topic, []byte(payload)); err != nil {
			s.log.Warn("publish failed", zap.String("topic", topic), zap.Error(err))
			continue
		}
		sent++
		s.log.Debug("reading published", zap.String("home_id", homeID), zap.String("watts", payload))
	}
	return sent
}

func (s *Simulator) nextWatts() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return MinWatts + s.rng.Float64()*(MaxWatts-MinWatts)
}
