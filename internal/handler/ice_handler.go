package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/weiawesome/wes-io-live/relay-service/internal/ice"
)

// ICEHandler serves the ICE server list peers need before signaling.
type ICEHandler struct {
	servers []ice.Server
}

// NewICEHandler creates a new ICE handler.
func NewICEHandler(servers []ice.Server) *ICEHandler {
	return &ICEHandler{servers: servers}
}

// RegisterRoutes mounts the ICE endpoint.
func (h *ICEHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/ice-servers", h.GetICEServers).Methods(http.MethodGet, http.MethodOptions)
}

// GetICEServers handles GET /api/v1/ice-servers
func (h *ICEHandler) GetICEServers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	servers := h.servers
	if servers == nil {
		servers = []ice.Server{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"iceServers": servers})
}
