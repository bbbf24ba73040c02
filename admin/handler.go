// Package admin exposes operator endpoints for cache statistics and invalidation.
package admin

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/mbeoliero/learncache"
	"github.com/mbeoliero/learncache/cacher"
	"github.com/mbeoliero/learncache/tier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache is the operator view of a *learncache.Manager, independent of its value type.
type Cache interface {
	Name() string
	Stats() learncache.Snapshot
	ResetStats()
	InvalidateCategory(ctx context.Context, category string) (int, error)
}

type Option func(*Handlers)

func WithCaches(caches ...Cache) Option {
	return func(h *Handlers) {
		h.caches = append(h.caches, caches...)
	}
}

func WithTierService(svc *tier.Service) Option {
	return func(h *Handlers) {
		h.tiers = svc
	}
}

// WithHealthCheck sets the probe behind /healthz, usually a redis PING.
func WithHealthCheck(check func(ctx context.Context) error) Option {
	return func(h *Handlers) {
		h.health = check
	}
}

func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handlers) {
		h.gatherer = g
	}
}

func WithLogger(logger cacher.Logger) Option {
	return func(h *Handlers) {
		h.logger = cacher.OrNop(logger)
	}
}

type Handlers struct {
	caches   []Cache
	tiers    *tier.Service
	health   func(ctx context.Context) error
	gatherer prometheus.Gatherer
	logger   cacher.Logger
}

func New(opts ...Option) *Handlers {
	h := &Handlers{
		gatherer: prometheus.DefaultGatherer,
		logger:   cacher.NopLogger{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router mounts every endpoint. Tier endpoints are only mounted when a tier service is set.
func (h *Handlers) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods("GET")

	router.HandleFunc("/cache/stats", h.GetStats).Methods("GET")
	router.HandleFunc("/cache/stats/reset", h.ResetStats).Methods("POST")
	router.HandleFunc("/cache/categories/{category}", h.InvalidateCategory).Methods("DELETE")

	if h.tiers != nil {
		router.HandleFunc("/tiers/invalidate", h.InvalidateTiers).Methods("POST")
		router.HandleFunc("/tiers/{userID}", h.GetTier).Methods("GET")
		router.HandleFunc("/tiers/{userID}", h.InvalidateTier).Methods("DELETE")
	}
	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.logger.CtxError(r.Context(), "[admin] health check failed. err=%v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]learncache.Snapshot, len(h.caches))
	for _, c := range h.caches {
		stats[c.Name()] = c.Stats()
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handlers) ResetStats(w http.ResponseWriter, r *http.Request) {
	for _, c := range h.caches {
		c.ResetStats()
	}
	h.logger.CtxInfo(r.Context(), "[admin] statistics reset. caches=%d", len(h.caches))
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateCategory drops the category from every cache that defines it.
func (h *Handlers) InvalidateCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]

	deleted := make(map[string]int)
	for _, c := range h.caches {
		n, err := c.InvalidateCategory(r.Context(), category)
		if errors.Is(err, learncache.ErrUnknownCategory) {
			continue
		}
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		deleted[c.Name()] = n
	}
	if len(deleted) == 0 {
		writeError(w, http.StatusNotFound, "unknown category "+category)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"category": category, "deleted": deleted})
}

type tierResponse struct {
	UserID     string    `json:"userId"`
	Tier       tier.Tier `json:"tier"`
	Cached     bool      `json:"cached"`
	TTLSeconds float64   `json:"ttlSeconds"`
}

func (h *Handlers) GetTier(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	t := h.tiers.GetTier(r.Context(), userID)
	ttl := h.tiers.CacheTTL(r.Context(), userID)

	resp := tierResponse{UserID: userID, Tier: t, Cached: ttl > 0, TTLSeconds: -1}
	if ttl > 0 {
		resp.TTLSeconds = ttl.Seconds()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) InvalidateTier(w http.ResponseWriter, r *http.Request) {
	if err := h.tiers.Invalidate(r.Context(), mux.Vars(r)["userID"]); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type invalidateRequest struct {
	UserIDs []string `json:"userIds"`
}

func (h *Handlers) InvalidateTiers(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.tiers.InvalidateBatch(r.Context(), req.UserIDs); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
