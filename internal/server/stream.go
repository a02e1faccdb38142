package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	"github.com/smallbiznis/gridpulse/internal/observability/logger"
	"go.uber.org/zap"
)

const streamHeartbeat = 15 * time.Second

// streamRegistry remembers open observer subscriptions so shutdown can end
// them.
type streamRegistry struct {
	mu   sync.Mutex
	subs map[uint64]*broadcast.Subscription
}

func newStreamRegistry() *streamRegistry {
	return &streamRegistry{subs: make(map[uint64]*broadcast.Subscription)}
}

func (r *streamRegistry) add(sub *broadcast.Subscription) {
	r.mu.Lock()
	r.subs[sub.ID()] = sub
	r.mu.Unlock()
}

func (r *streamRegistry) remove(sub *broadcast.Subscription) {
	r.mu.Lock()
	delete(r.subs, sub.ID())
	r.mu.Unlock()
}

func (r *streamRegistry) closeAll() {
	r.mu.Lock()
	subs := make([]*broadcast.Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.Unlock()
	for _, sub := range subs {
		sub.Close()
	}
}

func (s *Server) closeStreams() {
	s.streams.closeAll()
}

func (s *Server) subscribe(c *gin.Context, transport string) (*broadcast.Subscription, bool) {
	if s.hub == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return nil, false
	}
	sub, err := s.hub.Subscribe(transport + ":" + c.ClientIP())
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	s.streams.add(sub)
	return sub, true
}

func (s *Server) unsubscribe(sub *broadcast.Subscription) {
	s.streams.remove(sub)
	sub.Close()
}

// StreamEvents serves broadcast events as Server-Sent Events. Observers
// only see events published after they connect.
func (s *Server) StreamEvents(c *gin.Context) {
	sub, ok := s.subscribe(c, "sse")
	if !ok {
		return
	}
	defer s.unsubscribe(sub)

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}
	writer.Flush()

	ctx := c.Request.Context()
	log := logger.FromContext(ctx).With(zap.Uint64("subscriber_id", sub.ID()))
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done():
			return
		case event := <-sub.Events():
			// Render failures are recorded on c and abort the context.
			c.SSEvent(string(event.Type), event.Payload)
			if c.IsAborted() {
				err := io.ErrClosedPipe
				if last := c.Errors.Last(); last != nil {
					err = last.Err
				}
				logObserverFailure(ctx, log, event, err)
				return
			}
			writer.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			writer.Flush()
		}
	}
}

func logObserverFailure(ctx context.Context, log *zap.Logger, event broadcast.Event, err error) {
	if ctx.Err() != nil || err == nil {
		return
	}
	log.Debug("observer delivery failed",
		zap.String("event_type", string(event.Type)),
		zap.Error(fmt.Errorf("%w: %w", broadcast.ErrBroadcastFailure, err)),
	)
}
