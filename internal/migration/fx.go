package migration

import (
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/smallbiznis/gridpulse/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if err := Migrate(conn, cfg.DBType); err != nil {
			return err
		}

		if !cfg.SeedSampleHomes {
			return nil
		}
		created, err := seed.EnsureHomes(conn)
		if err != nil {
			return err
		}
		if created > 0 {
			log.Named("migration").Info("seeded sample homes", zap.Int("count", created))
		}
		return nil
	}),
)
