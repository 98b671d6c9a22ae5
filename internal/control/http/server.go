// Package http is the optional HTTP control surface (§6 Control surface):
// ingestion, status, emergency override, Thai helper endpoints, health,
// metrics, and a real-time notification stream. The router is chi-based
// and rate-limited with httprate, grounded on the teacher's
// control/middleware stack.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sekz/ODR-PadEnc/internal/config"
	"github.com/sekz/ODR-PadEnc/internal/coordinator"
	"github.com/sekz/ODR-PadEnc/internal/dls"
	padlog "github.com/sekz/ODR-PadEnc/internal/log"
	"github.com/sekz/ODR-PadEnc/internal/slideshow"
	"github.com/sekz/ODR-PadEnc/internal/validator"
)

// Config configures the control surface's HTTP listener (§6 defaults to
// port 8008).
type Config struct {
	BindAddr     string
	RateLimitRPS int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// ConfigPath and Version are the same values passed to the top-level
	// config.Loader at startup; POST /config/reload re-runs that loader
	// against them. ConfigPath may be empty (env/defaults only reload).
	ConfigPath string
	Version    string
}

func (c Config) withDefaults() Config {
	if c.BindAddr == "" {
		c.BindAddr = ":8008"
	}
	if c.RateLimitRPS <= 0 {
		c.RateLimitRPS = 60
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
	return c
}

// Server wires the Slideshow Engine, DLS Engine, Coordinator, and
// Validator behind a chi router.
type Server struct {
	cfg    Config
	server *http.Server
	logger zerolog.Logger

	slides    *slideshow.Engine
	messages  *dls.Engine
	coord     *coordinator.Coordinator
	validator *validator.Validator
	selector  *dls.ContextSelector

	notify *notifier
}

// New constructs a Server and builds its router. It does not start
// listening until ListenAndServe is called.
func New(cfg Config, slides *slideshow.Engine, messages *dls.Engine, coord *coordinator.Coordinator, selector *dls.ContextSelector, v *validator.Validator) *Server {
	s := &Server{
		cfg:       cfg.withDefaults(),
		logger:    padlog.WithComponent("control"),
		slides:    slides,
		messages:  messages,
		coord:     coord,
		validator: v,
		selector:  selector,
		notify:    newNotifier(),
	}
	s.server = &http.Server{
		Addr:         s.cfg.BindAddr,
		Handler:      s.router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(httprate.LimitByIP(s.cfg.RateLimitRPS, time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/status", s.handleStatus)
	r.Get("/events", s.handleEvents)

	r.Get("/images", s.handleListImages)
	r.Post("/images", s.handleAddImage)
	r.Delete("/images/{id}", s.handleDeleteImage)

	r.Get("/messages", s.handleListMessages)
	r.Post("/messages", s.handleAddMessage)

	r.Post("/emergency", s.handleSetEmergency)
	r.Delete("/emergency", s.handleClearEmergency)

	r.Post("/thai/validate", s.handleThaiValidate)
	r.Post("/thai/convert", s.handleThaiConvert)
	r.Get("/thai/buddhist-date", s.handleBuddhistDate)

	r.Post("/config/reload", s.handleConfigReload)

	return r
}

// reloadConfig re-runs the config.Loader and applies the parts of the
// result that are safe to hot-swap: the Coordinator's tick cadence (via
// its own drain-then-swap Reconfigure) and the Validator's token lists.
// Engine-level settings (queue caps, TTLs, dedup windows) are fixed at
// construction and are not swapped by a reload, matching §5's "engines
// are constructed once" contract.
func (s *Server) reloadConfig() (config.Snapshot, error) {
	snap, err := config.NewLoader(s.cfg.ConfigPath, s.cfg.Version).Load()
	if err != nil {
		return config.Snapshot{}, err
	}

	s.coord.Reconfigure(coordinator.Config{
		SlideshowTickInterval: snap.Slideshow.TickInterval,
		DLSTickInterval:       snap.DLS.TickInterval,
		DLSEmergencyInterval:  snap.DLS.EmergencyInterval,
	})
	s.validator.SetTokens(validator.TokenLists{
		Disallowed: snap.Thai.DisallowedTerms,
		Royal:      snap.Thai.RoyalTerms,
		Religious:  snap.Thai.ReligiousTerms,
	})

	if s.cfg.ConfigPath != "" {
		if err := config.WriteSnapshot(s.cfg.ConfigPath+".applied", snap); err != nil {
			s.logger.Warn().Err(err).Msg("control: persist last-applied config failed")
		}
	}

	s.logger.Info().Str("config_path", s.cfg.ConfigPath).Msg("control: config reloaded")
	return snap, nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("control: request served")
	})
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled,
// then gracefully drains in-flight requests (§9 Background processors,
// the daemon bootstrap's ctx-then-Shutdown idiom).
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.BindAddr).Msg("control: listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("control: listen: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}
