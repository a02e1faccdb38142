package broadcast

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	alertdomain "github.com/smallbiznis/gridpulse/internal/alert/domain"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
	obsmetrics "github.com/smallbiznis/gridpulse/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(power float64) Event {
	return NewConsumptionUpdate(consumptiondomain.Reading{
		HomeID:    "H001",
		Power:     power,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	})
}

func drain(sub *Subscription) []Event {
	var out []Event
	for {
		select {
		case ev := <-sub.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub()
	a, err := hub.Subscribe("a")
	require.NoError(t, err)
	b, err := hub.Subscribe("b")
	require.NoError(t, err)

	hub.Publish(update(100))

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
	assert.Equal(t, 2, hub.Len())
}

func TestFullSubscriberDropsWithoutAffectingOthers(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obsmetrics.NewPipelineMetricsForRegistry(registry, obsmetrics.Config{})
	hub := NewHub(WithSubscriberBuffer(2), WithMetrics(metrics))

	slow, err := hub.Subscribe("slow")
	require.NoError(t, err)
	fast, err := hub.Subscribe("fast")
	require.NoError(t, err)

	received := 0
	for i := 0; i < 5; i++ {
		hub.Publish(update(float64(i)))
		received += len(drain(fast))
	}

	assert.Equal(t, 5, received)
	assert.Len(t, drain(slow), 2)
	assert.Equal(t, uint64(3), slow.Dropped())
	assert.Zero(t, fast.Dropped())
	expected := `
# HELP gridpulse_broadcast_dropped_total Events dropped for subscribers whose buffer was full.
# TYPE gridpulse_broadcast_dropped_total counter
gridpulse_broadcast_dropped_total{env="unknown",event_type="consumption_update",service="gridpulse"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "gridpulse_broadcast_dropped_total"))
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub(WithSubscriberBuffer(1))
	_, err := hub.Subscribe("stuck")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(update(float64(i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stuck subscriber")
	}
}

func TestClosedSubscriptionReceivesNothing(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe("gone")
	require.NoError(t, err)

	sub.Close()
	sub.Close()
	hub.Publish(update(1))

	assert.Empty(t, drain(sub))
	assert.Equal(t, 0, hub.Len())
	select {
	case <-sub.Done():
	default:
		t.Fatal("expected done to be closed")
	}
}

func TestLateSubscriberGetsNoBacklog(t *testing.T) {
	hub := NewHub()
	hub.Publish(update(1))
	hub.Publish(update(2))

	sub, err := hub.Subscribe("late")
	require.NoError(t, err)
	assert.Empty(t, drain(sub))

	hub.Publish(update(3))
	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, 3.0, events[0].Payload.(ConsumptionUpdate).Power)
}

func TestHubCloseEndsSubscriptions(t *testing.T) {
	hub := NewHub()
	sub, err := hub.Subscribe("a")
	require.NoError(t, err)

	hub.Close()
	<-sub.Done()

	_, err = hub.Subscribe("b")
	assert.ErrorIs(t, err, ErrHubClosed)
	hub.Publish(update(1))
	sub.Close()
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	hub := NewHub(WithSubscriberBuffer(4))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub, err := hub.Subscribe("churn")
			if err != nil {
				return
			}
			drain(sub)
			sub.Close()
		}()
		go func(i int) {
			defer wg.Done()
			hub.Publish(update(float64(i)))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, hub.Len())
}

func TestEventJSONShape(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(NewAlert(&alertdomain.Alert{
		HomeID:    "H001",
		Type:      alertdomain.LevelHigh,
		Value:     1300,
		Timestamp: ts,
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"alert","payload":{"homeId":"H001","level":"HIGH","value":1300,"timestamp":"2026-03-01T10:00:00.000Z"}}`, string(raw))

	raw, err = json.Marshal(update(1300))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"consumption_update","payload":{"homeId":"H001","power":1300,"timestamp":"2026-03-01T10:00:00.000Z"}}`, string(raw))
}
