// Package api exposes the configuration service over HTTP. Every entity
// kind gets list, get, create, overwrite and delete routes; snapshot
// export, import and archiving plus alerter mute flags sit under
// /v1/config and /v1/mute.
package api

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"panicconf/internal/archive"
	"panicconf/internal/core"
	redisinfra "panicconf/internal/infra/redis"
)

// Option configures optional server collaborators.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithArchiver enables the snapshot archive routes.
func WithArchiver(a *archive.Archiver) Option {
	return func(s *Server) { s.archiver = a }
}

// WithRedis enables the mute routes backed by the alerter's Redis.
func WithRedis(c *redisinfra.Client) Option {
	return func(s *Server) { s.redis = c }
}

// WithMetricsRegistry exposes the registry on GET /metrics.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithExpvar exposes the process expvar page on GET /debug/vars, used when
// the expvar metrics exporter is selected instead of Prometheus.
func WithExpvar() Option {
	return func(s *Server) { s.expvarOn = true }
}

// WithReadTimeout sets the HTTP server read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// WithWriteTimeout sets the HTTP server write timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.writeTimeout = d }
}

// Server wires the configuration service into a gin router.
type Server struct {
	service  *core.Service
	archiver *archive.Archiver
	redis    *redisinfra.Client
	logger   *zap.Logger
	registry *prometheus.Registry
	expvarOn bool

	readTimeout  time.Duration
	writeTimeout time.Duration

	engine *gin.Engine
	httpd  *http.Server
}

// New builds a server around the configuration service.
func New(service *core.Service, opts ...Option) *Server {
	s := &Server{
		service:      service,
		logger:       zap.NewNop(),
		readTimeout:  15 * time.Second,
		writeTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger))

	r.GET("/healthz", s.handleHealth)
	if s.registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}
	if s.expvarOn {
		r.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	}

	v1 := r.Group("/v1")
	s.registerEntityRoutes(v1)
	s.registerConfigRoutes(v1)
	s.registerMuteRoutes(v1)
	return r
}

// Router returns the underlying gin engine, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.engine
}

// Run serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpd = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info("http server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpd.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if s.redis != nil {
		status["redis_connected"] = s.redis.Connected()
	}
	c.JSON(http.StatusOK, status)
}
