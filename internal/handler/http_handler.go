package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/weiawesome/wes-io-live/relay-service/internal/hub"
	"github.com/weiawesome/wes-io-live/relay-service/internal/service"
)

// HTTPHandler serves read-only views of the relay state. Every read goes
// through the hub loop.
type HTTPHandler struct {
	hub     *hub.Hub
	service service.RelayService
}

// NewHTTPHandler creates a new HTTP handler.
func NewHTTPHandler(h *hub.Hub, svc service.RelayService) *HTTPHandler {
	return &HTTPHandler{
		hub:     h,
		service: svc,
	}
}

// RegisterRoutes mounts the health and API endpoints.
func (h *HTTPHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/stats", h.GetStats).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/rooms/{room_code}", h.GetRoom).Methods(http.MethodGet)
}

// HealthCheck handles GET /health
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetStats handles GET /api/v1/stats
func (h *HTTPHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats service.Stats
	if err := h.hub.Do(func() { stats = h.service.Stats() }); err != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetRoom handles GET /api/v1/rooms/{room_code}
func (h *HTTPHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["room_code"]
	if code == "" {
		http.Error(w, "room_code is required", http.StatusBadRequest)
		return
	}

	var (
		info  service.RoomInfo
		found bool
	)
	if err := h.hub.Do(func() { info, found = h.service.Room(code) }); err != nil {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if !found {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
