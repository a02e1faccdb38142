package main

import (
	"context"

	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/smallbiznis/gridpulse/internal/migration"
	"github.com/smallbiznis/gridpulse/internal/observability"
	"github.com/smallbiznis/gridpulse/internal/seed"
	"github.com/smallbiznis/gridpulse/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		fx.Invoke(run),
	)
	if err := app.Start(context.Background()); err != nil {
		panic(err)
	}
	_ = app.Stop(context.Background())
}

func run(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	log = log.Named("seed")
	if err := migration.Migrate(conn, cfg.DBType); err != nil {
		return err
	}
	created, err := seed.EnsureHomes(conn)
	if err != nil {
		return err
	}
	if created == 0 {
		log.Info("home registry already populated, skipping")
		return nil
	}
	for _, home := range seed.SampleHomes() {
		log.Info("home created",
			zap.String("home_id", home.HomeID),
			zap.String("address", home.Address),
			zap.String("owner", home.Owner),
		)
	}
	log.Info("sample homes created", zap.Int("count", created))
	return nil
}
