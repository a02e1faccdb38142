package mqttsource

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/config"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSubmitter struct {
	mu   sync.Mutex
	msgs []consumptiondomain.RawMessage
	err  error
}

func (c *captureSubmitter) Submit(_ context.Context, msg consumptiondomain.RawMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func TestNewRequiresBroker(t *testing.T) {
	_, err := New(config.MQTTConfig{}, &captureSubmitter{}, nil, nil)
	assert.ErrorIs(t, err, ErrNoBroker)
}

func TestHandleSubmitsCopy(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := &captureSubmitter{}
	src, err := New(config.MQTTConfig{Broker: "mqtt://localhost:1883"}, sub, clock.NewFakeClock(now), nil)
	require.NoError(t, err)
	assert.Equal(t, "home/+/consumption", src.cfg.Topic)

	payload := []byte("1300.00")
	src.handle(&paho.Publish{Topic: "home/H001/consumption", Payload: payload})
	payload[0] = '9'

	require.Len(t, sub.msgs, 1)
	msg := sub.msgs[0]
	assert.Equal(t, "home/H001/consumption", msg.Topic)
	assert.Equal(t, "1300.00", string(msg.Payload))
	assert.Equal(t, now, msg.CapturedAt)
	assert.Equal(t, SourceName, msg.Source)
}

func TestHandleSurvivesSubmitError(t *testing.T) {
	sub := &captureSubmitter{err: errors.New("queue closed")}
	src, err := New(config.MQTTConfig{Broker: "mqtt://localhost:1883"}, sub, nil, nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		src.handle(&paho.Publish{Topic: "home/H001/consumption", Payload: []byte("1")})
	})
	assert.NoError(t, src.Stop(context.Background()))
}
