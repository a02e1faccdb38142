package main

import (
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/smallbiznis/gridpulse/internal/observability"
	"github.com/smallbiznis/gridpulse/internal/simulator"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		simulator.Module,
	)
	app.Run()
}
