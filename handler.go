package main

import (
	"encoding/json"
	"net/http"

	"trade-tracker/models"
)

// APIHandler handles HTTP API requests
type APIHandler struct {
	app *App
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(app *App) *APIHandler {
	return &APIHandler{app: app}
}

// handleHealth returns the health status of the application
func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "not_configured",
		},
	}

	if h.app.db != nil {
		if err := h.app.db.Health(r.Context()); err == nil {
			status["services"].(map[string]string)["database"] = "connected"
		} else {
			status["services"].(map[string]string)["database"] = "disconnected"
			status["status"] = "degraded"
		}
	}

	h.jsonResponse(w, status)
}

// handleGetPositions returns all open positions
func (h *APIHandler) handleGetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.app.GetOpenPositions(r.Context())
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if positions == nil {
		positions = []models.Position{}
	}

	h.jsonResponse(w, positions)
}

// handleGetPortfolio returns the priced portfolio snapshot. The optional
// ?filter= query accepts all, spot or futures.
func (h *APIHandler) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParsePortfolioFilter(r.URL.Query().Get("filter"))
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := h.app.GetPortfolio(r.Context(), filter)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.jsonResponse(w, snapshot)
}

func (h *APIHandler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *APIHandler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
