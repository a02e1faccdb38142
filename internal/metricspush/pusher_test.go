package metricspush

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
	"github.com/smallbiznis/gridpulse/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

func testRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	reg := prometheus.NewRegistry()
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gridpulse_messages_received_total",
		Help: "received",
	}, []string{"source"})
	subscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gridpulse_broadcast_subscribers",
		Help: "subscribers",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "gridpulse_ingest_process_duration_seconds",
		Help: "duration",
	})
	reg.MustRegister(received, subscribers, duration)
	received.WithLabelValues("mqtt").Add(3)
	subscribers.Set(2)
	duration.Observe(0.5)
	return reg
}

func TestRemoteWritePusherSendsSeries(t *testing.T) {
	var got prompb.WriteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "snappy", r.Header.Get("Content-Encoding"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		raw, err := snappy.Decode(nil, body)
		require.NoError(t, err)
		require.NoError(t, proto.Unmarshal(raw, protoadapt.MessageV2Of(&got)))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pusher := NewRemoteWritePusher(srv.URL, "secret")
	pusher.now = func() time.Time { return time.UnixMilli(1_700_000_000_000) }
	require.NoError(t, pusher.Push(context.Background(), testRegistry(t)))

	values := map[string]float64{}
	for _, ts := range got.Timeseries {
		var name string
		for _, l := range ts.Labels {
			if l.Name == "__name__" {
				name = l.Value
			}
		}
		require.Len(t, ts.Samples, 1)
		assert.Equal(t, int64(1_700_000_000_000), ts.Samples[0].Timestamp)
		values[name] = ts.Samples[0].Value
	}
	assert.Equal(t, 3.0, values["gridpulse_messages_received_total"])
	assert.Equal(t, 2.0, values["gridpulse_broadcast_subscribers"])
	assert.Equal(t, 0.5, values["gridpulse_ingest_process_duration_seconds_sum"])
	assert.Equal(t, 1.0, values["gridpulse_ingest_process_duration_seconds_count"])
}

func TestRemoteWritePusherReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewRemoteWritePusher(srv.URL, "").Push(context.Background(), testRegistry(t))
	assert.ErrorContains(t, err, "502")
}

func TestPushgatewayPusherUsesJobAndGrouping(t *testing.T) {
	var path, method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pusher := NewPushgatewayPusher(srv.URL, "gridpulse", map[string]string{"environment": "test", "empty": ""})
	require.NoError(t, pusher.Push(context.Background(), testRegistry(t)))
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/gridpulse/environment/test", path)
}

func TestNewPusherSelection(t *testing.T) {
	cases := []struct {
		name     string
		cfg      config.MetricPushConfig
		wantType any
	}{
		{"disabled", config.MetricPushConfig{}, nil},
		{"missing endpoint", config.MetricPushConfig{Exporter: ExporterPushgateway}, nil},
		{"unknown exporter", config.MetricPushConfig{Exporter: "statsd", Endpoint: "http://x"}, nil},
		{"bad remote write url", config.MetricPushConfig{Exporter: ExporterRemoteWrite, Endpoint: "::"}, nil},
		{"remote write", config.MetricPushConfig{Exporter: ExporterRemoteWrite, Endpoint: "http://prom/api/v1/write"}, &RemoteWritePusher{}},
		{"pushgateway", config.MetricPushConfig{Exporter: ExporterPushgateway, Endpoint: "http://pgw:9091"}, &PushgatewayPusher{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPusher(config.Config{AppName: "gridpulse", MetricPush: tc.cfg}, zap.NewNop())
			if tc.wantType == nil {
				assert.Nil(t, p)
				return
			}
			assert.IsType(t, tc.wantType, p)
		})
	}
}

type countingPusher struct {
	pushes atomic.Int64
}

func (c *countingPusher) Push(context.Context, prometheus.Gatherer) error {
	c.pushes.Add(1)
	return nil
}

func TestWorkerPushesPeriodicallyAndOnStop(t *testing.T) {
	pusher := &countingPusher{}
	w := NewWorker(pusher, prometheus.NewRegistry(), 10*time.Millisecond, zap.NewNop())
	w.Start()

	require.Eventually(t, func() bool { return pusher.pushes.Load() >= 2 }, time.Second, 5*time.Millisecond)
	before := pusher.pushes.Load()
	require.NoError(t, w.Stop(context.Background()))
	assert.GreaterOrEqual(t, pusher.pushes.Load(), before+1)
}

type mockPusher struct {
	mock.Mock
}

func (m *mockPusher) Push(ctx context.Context, g prometheus.Gatherer) error {
	return m.Called(ctx, g).Error(0)
}

func TestWorkerFinalPushFailureIsNotFatal(t *testing.T) {
	reg := prometheus.NewRegistry()
	pusher := &mockPusher{}
	pusher.On("Push", mock.Anything, reg).Return(errors.New("gateway down")).Once()

	w := NewWorker(pusher, reg, time.Hour, zap.NewNop())
	w.Start()
	require.NoError(t, w.Stop(context.Background()))

	pusher.AssertExpectations(t)
}
