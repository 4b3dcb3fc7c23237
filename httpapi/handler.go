// Package httpapi serves the airport resolution engine over HTTP/JSON.
//
//	GET  /healthz                 liveness, never touches the catalog
//	GET  /readyz                  200 once the reference catalog is loaded
//	POST /v1/airports/resolve     resolve one typed identifier
//	POST /v1/logbook/import       resolve a ForeFlight logbook export
//	GET  /v1/catalog/stats        summary of the reference catalog
//	GET  /metrics                 Prometheus metrics
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hugr-lab/airportlog"
	"github.com/hugr-lab/airportlog/refdata"
	"github.com/hugr-lab/airportlog/resolve"
)

// MaxLogbookSize caps the body of a logbook upload.
const MaxLogbookSize = 32 << 20

// Engine is the part of airportlog.Engine the handlers use.
type Engine interface {
	ResolveOne(ctx context.Context, q resolve.Query) (resolve.Outcome, error)
	ImportLogbook(ctx context.Context, r io.Reader, existing resolve.CodeSet) (*airportlog.Import, error)
	Stats(ctx context.Context) (refdata.Summary, error)
}

// Config configures the HTTP handler.
type Config struct {
	// Engine serves the resolution requests.
	// REQUIRED.
	Engine Engine

	// Loaded reports whether the reference catalog is in memory, for /readyz.
	// OPTIONAL: Without it /readyz always reports ready.
	Loaded func() bool

	// Gatherer backs /metrics.
	// OPTIONAL: Uses prometheus.DefaultGatherer if nil.
	Gatherer prometheus.Gatherer

	// Logger for request failures.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger

	// Timeout bounds every request.
	// OPTIONAL: Defaults to 30 seconds.
	Timeout time.Duration
}

// Handler wires the HTTP endpoints to the engine.
type Handler struct {
	engine   Engine
	loaded   func() bool
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	timeout  time.Duration
}

// New constructs a Handler. It panics if cfg.Engine is nil.
func New(cfg Config) *Handler {
	if cfg.Engine == nil {
		panic("httpapi: engine is required")
	}
	h := &Handler{
		engine:   cfg.Engine,
		loaded:   cfg.Loaded,
		gatherer: cfg.Gatherer,
		logger:   cfg.Logger,
		timeout:  cfg.Timeout,
	}
	if h.gatherer == nil {
		h.gatherer = prometheus.DefaultGatherer
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.timeout <= 0 {
		h.timeout = 30 * time.Second
	}
	return h
}

// Router returns the mounted endpoints.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HandleHealth)
	r.Get("/readyz", h.HandleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(h.timeout))
		r.Post("/airports/resolve", h.HandleResolve)
		r.Post("/logbook/import", h.HandleImport)
		r.Get("/catalog/stats", h.HandleStats)
	})
	return r
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleReady handles GET /readyz.
func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.loaded != nil && !h.loaded() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ResolveRequest is the body of POST /v1/airports/resolve.
type ResolveRequest struct {
	Input string `json:"input"`
	// Kind is visited, wishlist or fuel. Empty means visited.
	Kind string `json:"type,omitempty"`
	// Date is the visit date (YYYY-MM-DD). Empty means today.
	Date  string               `json:"date,omitempty"`
	Known []resolve.Membership `json:"known,omitempty"`
}

// HandleResolve handles POST /v1/airports/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("invalid JSON body: %v", err))
		return
	}
	kind, ok := resolve.ParseKind(req.Kind)
	if !ok {
		writeError(w, badRequest("unknown airport type %q", req.Kind))
		return
	}
	if req.Date != "" {
		if _, err := time.Parse(time.DateOnly, req.Date); err != nil {
			writeError(w, badRequest("invalid date %q: expected YYYY-MM-DD", req.Date))
			return
		}
	}

	out, err := h.engine.ResolveOne(ctx, resolve.Query{
		Input: req.Input,
		Kind:  kind,
		Date:  req.Date,
		Known: resolve.NewKnownSet(req.Known...),
	})
	if err != nil {
		h.fail(w, r, "resolve airport", err)
		return
	}
	writeJSON(w, http.StatusOK, out.Report())
}

// ImportResponse is the reply of POST /v1/logbook/import.
type ImportResponse struct {
	Airports []*resolve.Airport `json:"airports"`
	Stats    resolve.BatchStats `json:"stats"`
	Dropped  int                `json:"dropped"`
	// BBox is [min_lon, min_lat, max_lon, max_lat] of the new airports with
	// coordinates, absent when none have any.
	BBox *[4]float64 `json:"bbox,omitempty"`
}

// HandleImport handles POST /v1/logbook/import. The body is the raw CSV
// export; codes already in the caller's lists go in ?existing=, either
// repeated or comma-separated.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var codes []string
	for _, v := range r.URL.Query()["existing"] {
		codes = append(codes, strings.Split(v, ",")...)
	}

	body := http.MaxBytesReader(w, r.Body, MaxLogbookSize)
	imp, err := h.engine.ImportLogbook(ctx, body, resolve.NewCodeSet(codes...))
	if err != nil {
		h.fail(w, r, "import logbook", err)
		return
	}

	resp := ImportResponse{
		Airports: imp.Airports,
		Stats:    imp.Stats,
		Dropped:  imp.Dropped,
	}
	if imp.HasBounds {
		resp.BBox = &[4]float64{imp.Bounds.Min.Lon(), imp.Bounds.Min.Lat(), imp.Bounds.Max.Lon(), imp.Bounds.Max.Lat()}
	}
	h.logger.InfoContext(ctx, "logbook imported",
		"request_id", middleware.GetReqID(ctx),
		"legs", imp.Stats.Legs,
		"airports", len(imp.Airports),
		"dropped", imp.Dropped,
	)
	writeJSON(w, http.StatusOK, resp)
}

// HandleStats handles GET /v1/catalog/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.Stats(r.Context())
	if err != nil {
		h.fail(w, r, "catalog stats", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	h.logger.ErrorContext(ctx, op+" failed",
		"request_id", middleware.GetReqID(ctx),
		"error", err,
	)
	writeError(w, err)
}
