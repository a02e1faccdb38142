package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedEngine(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/ingest", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	r.GET("/api/stream", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/consumption/:homeId", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r, logs
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestGinMiddlewareLevels(t *testing.T) {
	r, logs := observedEngine(t)

	serve(r, http.MethodGet, "/health")
	serve(r, http.MethodPost, "/api/ingest")
	serve(r, http.MethodGet, "/api/stream")
	serve(r, http.MethodGet, "/api/consumption/H001")

	entries := logs.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, "observer_session", entries[2].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[3].Level)
	assert.Equal(t, "H001", entries[3].ContextMap()["home_id"])
}

func TestGinMiddlewareEchoesRequestID(t *testing.T) {
	r, logs := observedEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/api/consumption/H002", nil)
	req.Header.Set("X-Request-Id", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-Id"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-123", logs.All()[0].ContextMap()["request_id"])

	w = serve(r, http.MethodGet, "/api/consumption/H002")
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}
