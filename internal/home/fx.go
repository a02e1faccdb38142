package home

import (
	"github.com/smallbiznis/gridpulse/internal/cache"
	"github.com/smallbiznis/gridpulse/internal/home/service"
	"go.uber.org/fx"
)

var Module = fx.Module("home.service",
	fx.Provide(cache.NewHomeRegistryCache),
	fx.Provide(service.NewService),
)
