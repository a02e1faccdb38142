package consumption

import (
	"github.com/smallbiznis/gridpulse/internal/consumption/service"
	"github.com/smallbiznis/gridpulse/internal/consumption/validator"
	"go.uber.org/fx"
)

var Module = fx.Module("consumption.service",
	fx.Provide(service.NewService),
	fx.Provide(validator.New),
)
