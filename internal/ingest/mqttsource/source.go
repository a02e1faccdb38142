// Package mqttsource subscribes to the telemetry topic and hands every
// publish to the ingestion queue.
package mqttsource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/config"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
	"github.com/smallbiznis/gridpulse/internal/ingest"
	"go.uber.org/zap"
)

const (
	SourceName   = "mqtt"
	keepAlive    = 20
	retryDelay   = 5 * time.Second
	connectGrace = 10 * time.Second
)

var ErrNoBroker = errors.New("mqtt_broker_not_configured")

type Source struct {
	cfg       config.MQTTConfig
	submitter ingest.Submitter
	clock     clock.Clock
	log       *zap.Logger

	cliCfg autopaho.ClientConfig
	conn   *autopaho.ConnectionManager
	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg config.MQTTConfig, submitter ingest.Submitter, clk clock.Clock, log *zap.Logger) (*Source, error) {
	if !cfg.Enabled() {
		return nil, ErrNoBroker
	}
	broker, err := url.Parse(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse mqtt broker url: %w", err)
	}
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	if log == nil {
		log = zap.NewNop()
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "gridpulse-ingest-" + strings.Split(uuid.NewString(), "-")[0]
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "home/+/consumption"
	}
	cfg.Topic = topic

	ctx, cancel := context.WithCancel(context.Background())
	s := &Source{
		cfg:       cfg,
		submitter: submitter,
		clock:     clk,
		log:       log.With(zap.String("broker", broker.Host), zap.String("client_id", clientID)),
		ctx:       ctx,
		cancel:    cancel,
	}

	s.cliCfg = autopaho.ClientConfig{
		BrokerUrls:        []*url.URL{broker},
		KeepAlive:         keepAlive,
		ConnectRetryDelay: retryDelay,
		OnConnectionUp:    s.onConnectionUp,
		OnConnectError: func(err error) {
			s.log.Warn("mqtt connect attempt failed", zap.Error(err))
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
			Router:   paho.NewSingleHandlerRouter(s.handle),
			OnClientError: func(err error) {
				s.log.Warn("mqtt client error", zap.Error(err))
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				if d.Properties != nil {
					s.log.Warn("mqtt server requested disconnect", zap.String("reason", d.Properties.ReasonString))
				} else {
					s.log.Warn("mqtt server requested disconnect", zap.Uint8("reason_code", d.ReasonCode))
				}
			},
		},
	}
	return s, nil
}

// Start opens the connection. An unreachable broker is logged, not fatal:
// the connection manager keeps retrying in the background.
func (s *Source) Start(ctx context.Context) error {
	conn, err := autopaho.NewConnection(s.ctx, s.cliCfg)
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	s.conn = conn

	awaitCtx, cancel := context.WithTimeout(ctx, connectGrace)
	defer cancel()
	if err := conn.AwaitConnection(awaitCtx); err != nil {
		s.log.Warn("mqtt broker not reachable yet, retrying in background", zap.Error(err))
	}
	return nil
}

// Stop disconnects from the broker and releases any handler blocked on a
// full queue.
func (s *Source) Stop(ctx context.Context) error {
	defer s.cancel()
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Disconnect(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("mqtt disconnect failed", zap.Error(err))
	}
	s.log.Info("mqtt source stopped")
	return nil
}

// Subscriptions are lost with the session, so they are renewed on every
// connect.
func (s *Source) onConnectionUp(cm *autopaho.ConnectionManager, _ *paho.Connack) {
	s.log.Info("mqtt connection up", zap.String("topic", s.cfg.Topic))
	_, err := cm.Subscribe(s.ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: s.cfg.Topic, QoS: byte(s.cfg.QoS)}},
	})
	if err != nil {
		s.log.Error("mqtt subscribe failed", zap.String("topic", s.cfg.Topic), zap.Error(err))
	}
}

// handle blocks while the ingest queue is full, which in turn slows the
// broker's delivery to this client.
func (s *Source) handle(p *paho.Publish) {
	payload := make([]byte, len(p.Payload))
	copy(payload, p.Payload)

	msg := consumptiondomain.RawMessage{
		Topic:      p.Topic,
		Payload:    payload,
		CapturedAt: s.clock.Now(),
		Source:     SourceName,
	}
	if err := s.submitter.Submit(s.ctx, msg); err != nil {
		s.log.Warn("mqtt message dropped",
			zap.String("topic", p.Topic),
			zap.Error(err),
		)
	}
}
