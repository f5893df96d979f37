package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-monitor/internal/delivery/http/request"
	"github.com/user/listing-monitor/internal/delivery/http/response"
	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

// TargetManager is the part of the scheduler the API drives.
type TargetManager interface {
	AddTarget(ctx context.Context, rawURL, title string) (*entity.MonitoredTarget, error)
	Targets() []*entity.MonitoredTarget
}

// ProxyLister exposes the live proxy set.
type ProxyLister interface {
	Snapshot() []entity.ProxyEndpoint
}

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	targets TargetManager
	proxies ProxyLister
	store   Pinger
	logger  *zap.Logger
}

func NewHandler(targets TargetManager, proxies ProxyLister, store Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		targets: targets,
		proxies: proxies,
		store:   store,
		logger:  logger.Named("api"),
	}
}

func (h *Handler) HandleAddTarget(w http.ResponseWriter, r *http.Request) {
	var req request.AddTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		h.writeJSONError(w, "url is required", http.StatusBadRequest)
		return
	}

	target, err := h.targets.AddTarget(r.Context(), req.URL, req.Title)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTargetURL) {
			h.writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to add target", zap.String("url", req.URL), zap.Error(err))
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, toTargetResponse(target))
}

func (h *Handler) HandleListTargets(w http.ResponseWriter, r *http.Request) {
	targets := h.targets.Targets()
	resp := make([]response.TargetResponse, 0, len(targets))
	for _, t := range targets {
		resp = append(resp, toTargetResponse(t))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleListProxies(w http.ResponseWriter, r *http.Request) {
	live := h.proxies.Snapshot()
	resp := response.ProxiesResponse{Live: len(live), Proxies: make([]string, 0, len(live))}
	for _, p := range live {
		resp.Proxies = append(resp.Proxies, p.Addr())
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleHealthCheck reports the store status. An empty proxy pool is reported
// but does not make the service unhealthy.
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := response.HealthResponse{Status: "ok", Store: "healthy", ProxiesLive: len(h.proxies.Snapshot())}
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Error("health check failed for store", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Store = "unhealthy"
		h.writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func toTargetResponse(t *entity.MonitoredTarget) response.TargetResponse {
	return response.TargetResponse{
		ID:          t.ID,
		Title:       t.Title,
		URL:         t.URL,
		LastUpdated: t.LastUpdated,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
