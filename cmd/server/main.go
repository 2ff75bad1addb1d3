package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/semaphore"

	"github.com/toricodesthings/wordcloud-service/internal/config"
	"github.com/toricodesthings/wordcloud-service/internal/pipeline"
)

const version = "1.0.0"

type server struct {
	cfg  config.Config
	log  zerolog.Logger
	pipe *pipeline.Pipeline

	requestSem *semaphore.Weighted

	// Per-IP rate limiters
	limiters sync.Map

	metrics *serverMetrics
}

func newServer(cfg config.Config, log zerolog.Logger) *server {
	reg := pipeline.NewRegistry(pipeline.Limits{
		MaxPDFBytes:  cfg.MaxPDFBytes,
		MaxDOCXBytes: cfg.MaxDOCXBytes,
		MaxTextBytes: cfg.MaxTextBytes,
	})
	return &server{
		cfg:        cfg,
		log:        log,
		pipe:       pipeline.New(reg, log),
		requestSem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
		metrics:    newServerMetrics(),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.withLogging)
	r.Use(s.withRecovery)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found", "No such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.With(s.withInternalAuth).Get("/metrics", s.handleMetrics)

	r.Group(func(r chi.Router) {
		r.Use(s.withInternalAuth)
		r.Use(s.withRateLimit)
		r.Use(s.withConcurrencyLimit)
		r.Post("/render", s.handleRender)
		r.Post("/table", s.handleTable)
	})
	return r
}

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (overrides $"+config.EnvFile+")")
	flag.Parse()

	var (
		cfg config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log := cfg.Logger()
	s := newServer(cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", srv.Addr).Msg("listen failed")
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.cleanupRateLimiters(ctx)

	if cfg.InternalSharedSecret == "" {
		log.Warn().Msg("INTERNAL_SHARED_SECRET not set (render endpoints are unauthenticated)")
	}
	log.Info().
		Str("addr", srv.Addr).
		Int64("maxConcurrent", cfg.MaxConcurrentRequests).
		Int("maxConnections", cfg.MaxConnections).
		Dur("renderTimeout", cfg.RenderTimeout).
		Msg("wordcloud listening")

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve failed")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
		log.Info().Msg("wordcloud stopped")
	}
}

func (s *server) cleanupRateLimiters(ctx context.Context) {
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snap := s.metrics.snapshot()
		s.log.Info().
			Int64("active", snap.Active).
			Int64("total", snap.Total).
			Int("goroutines", runtime.NumGoroutine()).
			Uint64("memMB", m.Alloc/(1<<20)).
			Msg("stats")

		s.limiters.Clear()
	}
}
