package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	"github.com/smallbiznis/gridpulse/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 512
)

func (s *Server) upgrader() *websocket.Upgrader {
	allowed := strings.TrimSpace(s.cfg.FrontendURL)
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed == "" || allowed == "*" || origin == allowed
		},
	}
}

// ServeWebSocket streams broadcast events as {"type","payload"} JSON frames.
func (s *Server) ServeWebSocket(c *gin.Context) {
	if s.hub == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the failure response.
		logger.FromContext(c.Request.Context()).Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	sub, err := s.hub.Subscribe("ws:" + c.ClientIP())
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(wsWriteWait))
		_ = conn.Close()
		return
	}
	s.streams.add(sub)

	log := logger.FromContext(c.Request.Context()).With(zap.Uint64("subscriber_id", sub.ID()))
	go s.wsWritePump(conn, sub, log)
	s.wsReadPump(conn, sub, log)
}

// wsReadPump only services control frames; it ends the subscription when
// the peer goes away.
func (s *Server) wsReadPump(conn *websocket.Conn, sub *broadcast.Subscription, log *zap.Logger) {
	defer s.unsubscribe(sub)

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) wsWritePump(conn *websocket.Conn, sub *broadcast.Subscription, log *zap.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-sub.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case event := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Debug("observer delivery failed",
					zap.String("event_type", string(event.Type)),
					zap.Error(fmt.Errorf("%w: %w", broadcast.ErrBroadcastFailure, err)),
				)
				sub.Close()
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				sub.Close()
				return
			}
		}
	}
}
