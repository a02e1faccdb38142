package mqttsource

import (
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/smallbiznis/gridpulse/internal/ingest"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ingest.mqtt",
	fx.Invoke(register),
)

// register must run after the ingest module so the source stops first and
// the queue can drain.
func register(lc fx.Lifecycle, cfg config.Config, submitter ingest.Submitter, clk clock.Clock, log *zap.Logger) error {
	log = log.Named("ingest.mqtt")
	if !cfg.MQTT.Enabled() {
		log.Info("mqtt broker not configured, mqtt ingestion disabled")
		return nil
	}
	source, err := New(cfg.MQTT, submitter, clk, log)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: source.Start,
		OnStop:  source.Stop,
	})
	return nil
}
