package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/renanmoretto/finbr/calendar"
	"github.com/renanmoretto/finbr/instruments/futures"
	"github.com/renanmoretto/finbr/internal/scheduler"
	"github.com/renanmoretto/finbr/marketdata/b3"
)

// SnapshotSource exposes the latest scheduled settlement snapshot.
type SnapshotSource interface {
	Latest() (*scheduler.Snapshot, bool)
}

// Config holds server configuration
type Config struct {
	Addr        string
	CORSOrigins []string
	Log         zerolog.Logger
	Calendar    *calendar.Calendar
	Workers     int
	// AsOf pins the default reference date; zero means today in Sao Paulo.
	AsOf time.Time
	// Now is the clock used for the default reference date; nil means time.Now.
	Now func() time.Time
	// Feed serves settlement strips by date; nil means the bundled sample strip.
	Feed      b3.SettlementFeed
	Snapshots SnapshotSource
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	addr   string
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.Calendar == nil {
		cfg.Calendar = calendar.NewNational()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Feed == nil {
		cfg.Feed = b3.DefaultSettlementFeed()
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		addr:   cfg.Addr,
	}

	s.setupMiddleware(cfg.CORSOrigins)

	h := &handler{
		log:       s.log,
		cal:       cfg.Calendar,
		pricer:    futures.NewDI1(cfg.Calendar),
		workers:   cfg.Workers,
		today:     todayFunc(cfg.AsOf, cfg.Now),
		feed:      cfg.Feed,
		snapshots: cfg.Snapshots,
	}
	s.router.Get("/health", h.handleHealth)
	s.router.Route("/api", h.RegisterRoutes)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// todayFunc resolves the default as-of date: the pinned date when set,
// otherwise the current date on the B3 clock.
func todayFunc(pinned time.Time, now func() time.Time) func() time.Time {
	if !pinned.IsZero() {
		d := calendar.Truncate(pinned)
		return func() time.Time { return d }
	}
	return func() time.Time { return calendar.Today(now()) }
}
