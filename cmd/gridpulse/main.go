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
	"github.com/smallbiznis/gridpulse/internal/migration"
	"github.com/smallbiznis/gridpulse/internal/observability"
	"github.com/smallbiznis/gridpulse/internal/ratelimit"
	"github.com/smallbiznis/gridpulse/internal/server"
	"github.com/smallbiznis/gridpulse/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		home.Module,
		consumption.Module,
		alert.Module,
		broadcast.Module,
		redisrelay.Module,
		ratelimit.Module,

		// Ingest hooks are appended before the MQTT source so the source
		// stops first and the queue drains on shutdown.
		ingest.Module,
		mqttsource.Module,

		server.Module,
		metricspush.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
