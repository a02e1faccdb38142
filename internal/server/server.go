package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	alertdomain "github.com/smallbiznis/gridpulse/internal/alert/domain"
	"github.com/smallbiznis/gridpulse/internal/broadcast"
	"github.com/smallbiznis/gridpulse/internal/clock"
	"github.com/smallbiznis/gridpulse/internal/config"
	consumptiondomain "github.com/smallbiznis/gridpulse/internal/consumption/domain"
	homedomain "github.com/smallbiznis/gridpulse/internal/home/domain"
	"github.com/smallbiznis/gridpulse/internal/ingest"
	"github.com/smallbiznis/gridpulse/internal/observability"
	obsmiddleware "github.com/smallbiznis/gridpulse/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/gridpulse/internal/observability/metrics"
	obstracing "github.com/smallbiznis/gridpulse/internal/observability/tracing"
	"github.com/smallbiznis/gridpulse/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if httpMetrics != nil {
		r.Use(httpMetrics.GinMiddleware())
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type engineParams struct {
	fx.In

	Cfg         config.Config
	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
}

func registerGin(p engineParams) *gin.Engine {
	if p.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(p.ObsCfg, p.HTTPMetrics)
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("http.server")
	// Long-lived observer streams end when their subscriptions close.
	srv.RegisterOnShutdown(s.closeStreams)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server failed", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// StreamAdmitter decides whether a client may open an observer stream.
type StreamAdmitter interface {
	Enabled() bool
	AllowClient(ctx context.Context, clientIP string) (*ratelimit.RateLimitResult, error)
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	log            *zap.Logger
	clock          clock.Clock
	homeSvc        homedomain.Service
	consumptionSvc consumptiondomain.Service
	alertSvc       alertdomain.Service
	hub            *broadcast.Hub
	ingest         ingest.Submitter
	streamLimiter  StreamAdmitter
	obsMetrics     *obsmetrics.Metrics
	streams        *streamRegistry
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Clock          clock.Clock
	HomeSvc        homedomain.Service
	ConsumptionSvc consumptiondomain.Service
	AlertSvc       alertdomain.Service
	Hub            *broadcast.Hub           `optional:"true"`
	Ingest         ingest.Submitter         `optional:"true"`
	StreamLimiter  *ratelimit.StreamLimiter `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("http.server"),
		clock:          p.Clock,
		homeSvc:        p.HomeSvc,
		consumptionSvc: p.ConsumptionSvc,
		alertSvc:       p.AlertSvc,
		hub:            p.Hub,
		ingest:         p.Ingest,
		obsMetrics:     p.ObsMetrics,
		streams:        newStreamRegistry(),
	}
	// A typed nil must not satisfy the interface.
	if p.StreamLimiter != nil {
		svc.streamLimiter = p.StreamLimiter
	}
	if svc.clock == nil {
		svc.clock = clock.NewSystemClock()
	}

	svc.engine.Use(CORS(p.Cfg.FrontendURL))
	svc.registerAPIRoutes()
	svc.registerStreamRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Homes --------
	api.GET("/homes", s.ListHomes)
	api.POST("/homes", s.CreateHome)
	api.GET("/homes/:homeId", s.GetHome)

	// -------- Consumption --------
	api.GET("/consumption/:homeId", s.GetLatestConsumption)
	api.GET("/consumption/:homeId/history", s.GetConsumptionHistory)
	api.GET("/statistics", s.GetStatistics)

	// -------- Alerts --------
	api.GET("/alerts", s.ListAlerts)

	// -------- Ingest --------
	api.POST("/ingest", s.IngestReading)
}

func (s *Server) registerStreamRoutes() {
	s.engine.GET("/api/stream", s.StreamRateLimit(), s.StreamEvents)
	s.engine.GET("/ws", s.StreamRateLimit(), s.ServeWebSocket)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
