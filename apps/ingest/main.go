package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gridpulse/internal/alert"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	"github.com/smallbiznis/gridpulse/internal/broadcast/redisrelay"
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/smallbiznis/gridpulse/internal/consumption"
	"github.com/smallbiznis/gridpulse/internal/home"
	"github.com/smallbiznis/gridpulse/internal/ingest"
	"github.com/smallbiznis/gridpulse/internal/ingest/mqttsource"
	"github.com/smallbiznis/gridpulse/internal/metricspush"
	"github.com/smallbiznis/gridpulse/internal/observability"
	"github.com/smallbiznis/gridpulse/internal/ratelimit"
	"github.com/smallbiznis/gridpulse/pkg/db"
	"go.uber.org/fx"
)

// Headless pipeline: MQTT in, persistence, and broadcast relayed to Redis
// for out-of-process observers.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		home.Module,
		consumption.Module,
		alert.Module,
		broadcast.Module,
		ratelimit.Module,
		redisrelay.Module,

		ingest.Module,
		mqttsource.Module,
		metricspush.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
