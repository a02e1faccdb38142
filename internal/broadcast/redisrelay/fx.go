package redisrelay

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	"github.com/smallbiznis/gridpulse/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("broadcast.redisrelay",
	fx.Invoke(register),
)

type relayParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Hub       *broadcast.Hub
	Client    *redis.Client `optional:"true"`
	Log       *zap.Logger
}

func register(p relayParams) {
	if !p.Config.Broadcast.RedisEnabled {
		return
	}
	if p.Client == nil {
		p.Log.Warn("redis relay enabled but no redis client configured")
		return
	}
	relay := New(p.Client, p.Config.Broadcast.RedisChannel, p.Log)
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return relay.Start(p.Hub)
		},
		OnStop: relay.Stop,
	})
}
