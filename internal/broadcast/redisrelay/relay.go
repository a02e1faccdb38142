// Package redisrelay forwards broadcast events to a Redis pub/sub channel so
// observers in other processes can follow the stream.
package redisrelay

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	"go.uber.org/zap"
)

const (
	DefaultChannel = "gridpulse:events"
	publishTimeout = time.Second
)

// publisher is the subset of redis.UniversalClient the relay uses.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Relay is an ordinary hub observer. A slow or unreachable Redis only costs
// the relay its own dropped events.
type Relay struct {
	client  publisher
	channel string
	log     *zap.Logger
	sub     *broadcast.Subscription
	stopped chan struct{}
}

func New(client publisher, channel string, log *zap.Logger) *Relay {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Relay{
		client:  client,
		channel: channel,
		log:     log.Named("broadcast.redisrelay"),
		stopped: make(chan struct{}),
	}
}

// Start subscribes to hub and relays until the subscription ends.
func (r *Relay) Start(hub *broadcast.Hub) error {
	sub, err := hub.Subscribe("redis-relay")
	if err != nil {
		return err
	}
	r.sub = sub
	go r.run()
	r.log.Info("redis relay started", zap.String("channel", r.channel))
	return nil
}

// Stop detaches the relay and waits for the loop to exit.
func (r *Relay) Stop(ctx context.Context) error {
	if r.sub == nil {
		return nil
	}
	r.sub.Close()
	select {
	case <-r.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	r.log.Info("redis relay stopped", zap.Uint64("dropped", r.sub.Dropped()))
	return nil
}

func (r *Relay) run() {
	defer close(r.stopped)
	for {
		select {
		case <-r.sub.Done():
			return
		case event := <-r.sub.Events():
			r.forward(event)
		}
	}
}

func (r *Relay) forward(event broadcast.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.log.Warn("encode event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.log.Warn("relay publish failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
