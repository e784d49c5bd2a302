package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/joeecarter/respondr-server/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes bounds /api/data bodies when RouterConfig leaves it unset.
const DefaultMaxBodyBytes = 32 << 20

type RouterConfig struct {
	Store       MetricStore
	Fetcher     MetricFetcher
	Identity    auth.Identity
	Schedule    ScheduleConfig
	CORSOrigins []string
	Logger      *zap.Logger

	MaxBodyBytes int64
}

type handlers struct {
	store     MetricStore
	ingester  *Ingester
	scheduled *ScheduledIngester
	logger    *zap.Logger
	maxBody   int64
}

// NewRouter wires the HTTP surface. Ingestion failures are reported in the
// body with status 200; only authentication and lookup failures use other
// status codes.
func NewRouter(config RouterConfig) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBody := config.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	ingester := NewIngester(config.Store, logger.Named("ingest"))
	h := &handlers{
		store:     config.Store,
		ingester:  ingester,
		scheduled: NewScheduledIngester(ingester, config.Fetcher, config.Schedule, logger.Named("scheduled")),
		logger:    logger,
		maxBody:   maxBody,
	}

	requireUser := func(next http.HandlerFunc) http.Handler {
		return auth.Require(config.Identity, next)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.root)
	mux.HandleFunc("GET /health", h.health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /me", requireUser(h.me))
	mux.Handle("POST /api/data", requireUser(h.ingestData))
	mux.Handle("POST /api/health/ingest", requireUser(h.ingestFromAPI))

	return withMiddleware(mux, logger.Named("http"), config.CORSOrigins)
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to Respondr API"})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user := auth.FromContext(r.Context())

	profile, err := h.store.GetProfile(r.Context(), user.ID)
	if errors.Is(err, ErrProfileNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("profile lookup failed", zap.Stringer("user_id", user.ID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		User    *auth.User `json:"user"`
		Profile *Profile   `json:"profile"`
	}{user, profile})
}

func (h *handlers) ingestData(w http.ResponseWriter, r *http.Request) {
	user := auth.FromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		writeJSON(w, http.StatusOK, failure(&IngestError{Kind: KindInvalidPayload, Err: err}))
		return
	}

	writeJSON(w, http.StatusOK, h.ingester.IngestExport(r.Context(), user.ID, body))
}

func (h *handlers) ingestFromAPI(w http.ResponseWriter, r *http.Request) {
	user := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, h.scheduled.Ingest(r.Context(), user.ID))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
