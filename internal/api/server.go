package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"pm-functions/internal/api/handlers"
	"pm-functions/internal/api/middleware"
	"pm-functions/internal/api/utils"
	"pm-functions/internal/config"
	"pm-functions/internal/db"
	"pm-functions/internal/logger"
)

type ServerDeps struct {
	Gateway handlers.Gateway
	DB      db.Pinger
	Logger  logger.LoggerService
}

func NewServer(cfg config.Config, deps ServerDeps) (*http.Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Gateway == nil {
		return nil, errors.New("gateway is required")
	}
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &http.Server{
		Addr:              strings.TrimSpace(cfg.APIListen),
		Handler:           NewRouter(deps.Gateway, deps.DB, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      writeTimeout(cfg.DB.QueryTimeout),
		IdleTimeout:       60 * time.Second,
	}, nil
}

// NewRouter mounts the function endpoints under /api.
func NewRouter(gw handlers.Gateway, pinger db.Pinger, log logger.LoggerService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.InvocationID)
	r.Use(middleware.Logging(log, true))
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { utils.WriteNotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { utils.WriteMethodNotAllowed(w) })

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.NewHealthHandler(pinger))
		handlers.New(gw, log).Register(r)
	})
	return r
}

// writeTimeout leaves room for a full query plus the response write.
func writeTimeout(query time.Duration) time.Duration {
	const base = 30 * time.Second
	if query+5*time.Second > base {
		return query + 5*time.Second
	}
	return base
}
