package alert

import (
	"github.com/smallbiznis/gridpulse/internal/alert/engine"
	"github.com/smallbiznis/gridpulse/internal/alert/service"
	"github.com/smallbiznis/gridpulse/internal/alert/threshold"
	"go.uber.org/fx"
)

var Module = fx.Module("alert.service",
	fx.Provide(service.NewService),
	fx.Provide(threshold.NewHolder),
	fx.Provide(func(h *threshold.Holder) threshold.Evaluator { return h }),
	fx.Provide(engine.New),
)
