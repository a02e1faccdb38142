package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/gridpulse/internal/alert"
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/smallbiznis/gridpulse/internal/consumption"
	"github.com/smallbiznis/gridpulse/internal/home"
	"github.com/smallbiznis/gridpulse/internal/observability"
	"github.com/smallbiznis/gridpulse/internal/ratelimit"
	"github.com/smallbiznis/gridpulse/internal/server"
	"github.com/smallbiznis/gridpulse/pkg/db"
	"go.uber.org/fx"
)

// Query surface only. Streams and HTTP ingest answer 503 without a local
// pipeline.
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
		ratelimit.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(3)
	if err != nil {
		panic(err)
	}
	return node
}
