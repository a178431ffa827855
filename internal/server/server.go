// Package server exposes the verification pipeline over HTTP for the
// portal upload flow. Verdicts are advisory: the API never rejects a
// submission because of flags.
package server

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/promohive/proofcheck"
	"github.com/promohive/proofcheck/internal/cache"
	"github.com/promohive/proofcheck/internal/events"
)

// Handler wires the verification core to its optional collaborators.
// Cache and Events may be nil; the pipeline runs the same without them.
type Handler struct {
	verifier   *proofcheck.Config
	cache      *cache.VerdictCache
	events     *events.Publisher
	duplicates *proofcheck.DuplicateFilter
	log        *slog.Logger
	maxUpload  int64
	nowFn      func() time.Time
}

// Options configures a Handler.
type Options struct {
	Verifier  *proofcheck.Config
	Cache     *cache.VerdictCache
	Events    *events.Publisher
	Log       *slog.Logger
	MaxUpload int64 // max accepted upload size in bytes (default: 10 MiB)
}

// New creates a Handler.
func New(opts Options) *Handler {
	logger := opts.Log
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := opts.MaxUpload
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		verifier:   opts.Verifier,
		cache:      opts.Cache,
		events:     opts.Events,
		duplicates: &proofcheck.DuplicateFilter{},
		log:        logger,
		maxUpload:  maxUpload,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Router builds the HTTP routes.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Post("/v1/verifications", h.verify)

	return r
}
