package redisrelay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu       sync.Mutex
	channels []string
	messages [][]byte
	err      error
	got      chan struct{}
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	f.channels = append(f.channels, channel)
	f.messages = append(f.messages, message.([]byte))
	f.mu.Unlock()
	f.got <- struct{}{}
	return redis.NewIntResult(1, f.err)
}

func TestRelayForwardsEvents(t *testing.T) {
	hub := broadcast.NewHub()
	pub := &fakePublisher{got: make(chan struct{}, 4)}
	relay := New(pub, "", nil)
	require.NoError(t, relay.Start(hub))

	hub.Publish(broadcast.NewConsumptionUpdate(consumptiondomain.Reading{
		HomeID:    "H001",
		Power:     500,
		Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}))

	select {
	case <-pub.got:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not publish")
	}

	require.NoError(t, relay.Stop(context.Background()))

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.messages, 1)
	assert.Equal(t, DefaultChannel, pub.channels[0])

	var frame map[string]any
	require.NoError(t, json.Unmarshal(pub.messages[0], &frame))
	assert.Equal(t, "consumption_update", frame["type"])
}

func TestRelayErrorsDoNotStopLoop(t *testing.T) {
	hub := broadcast.NewHub()
	pub := &fakePublisher{got: make(chan struct{}, 4), err: errors.New("redis down")}
	relay := New(pub, "grid", nil)
	require.NoError(t, relay.Start(hub))

	for i := 0; i < 2; i++ {
		hub.Publish(broadcast.NewConsumptionUpdate(consumptiondomain.Reading{HomeID: "H001", Power: float64(i)}))
		select {
		case <-pub.got:
		case <-time.After(2 * time.Second):
			t.Fatal("relay stalled after publish error")
		}
	}
	require.NoError(t, relay.Stop(context.Background()))
}
