package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
)

const sourceHTTP = "http"

// Fields may arrive as JSON strings or bare values; the pipeline decides
// what is malformed.
type ingestRequest struct {
	Topic     json.RawMessage `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// IngestReading accepts one raw message. The body is queued as-is: a bad
// topic or payload is dropped and counted by the pipeline, not rejected
// here.
func (s *Server) IngestReading(c *gin.Context) {
	if s.ingest == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	msg := consumptiondomain.RawMessage{
		Topic:   strings.TrimSpace(string(rawText(req.Topic))),
		Payload: rawText(req.Payload),
		Source:  sourceHTTP,
	}
	// An unparseable client timestamp falls back to arrival time.
	if ts, err := parseOptionalTime(string(rawText(req.Timestamp))); err == nil && ts != nil {
		msg.CapturedAt = ts.UTC()
	}

	if err := s.ingest.Submit(c.Request.Context(), msg); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// rawText unquotes a JSON string and passes any other value through as its
// literal bytes.
func rawText(raw json.RawMessage) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return []byte(text)
		}
	}
	return []byte(raw)
}
