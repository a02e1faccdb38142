package simulator

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
	"github.com/smallbiznis/gridpulse/internal/config"
	"go.uber.org/zap"
)

// MQTTPublisher publishes readings through a managed broker connection.
type MQTTPublisher struct {
	conn *autopaho.ConnectionManager
	qos  byte
	log  *zap.Logger
}

func DialMQTT(ctx context.Context, cfg config.MQTTConfig, log *zap.Logger) (*MQTTPublisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mqtt broker is required")
	}
	broker, err := url.Parse(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse mqtt broker url: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	clientID := "gridpulse-simulator-" + strings.Split(uuid.NewString(), "-")[0]

	conn, err := autopaho.NewConnection(ctx, autopaho.ClientConfig{
		BrokerUrls:        []*url.URL{broker},
		KeepAlive:         20,
		ConnectRetryDelay: 5 * time.Second,
		OnConnectionUp: func(*autopaho.ConnectionManager, *paho.Connack) {
			log.Info("mqtt connection up", zap.String("broker", broker.Host))
		},
		OnConnectError: func(err error) {
			log.Warn("mqtt connect attempt failed", zap.Error(err))
		},
		ClientConfig: paho.ClientConfig{ClientID: clientID},
	})
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	if err := conn.AwaitConnection(ctx); err != nil {
		return nil, fmt.Errorf("mqtt await connection: %w", err)
	}
	return &MQTTPublisher{conn: conn, qos: byte(cfg.QoS), log: log}, nil
}

func (p *MQTTPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	_, err := p.conn.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     p.qos,
		Payload: payload,
	})
	return err
}

func (p *MQTTPublisher) Close(ctx context.Context) error {
	return p.conn.Disconnect(ctx)
}
