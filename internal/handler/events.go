package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/store"
)

// TelemetryHandler serves SDK usage-event ingestion and the dashboard's
// aggregate views.
type TelemetryHandler struct {
	store *store.Store
}

// NewTelemetryHandler creates a new TelemetryHandler.
func NewTelemetryHandler(st *store.Store) *TelemetryHandler {
	return &TelemetryHandler{store: st}
}

type eventRequest struct {
	ClientID   string                 `json:"client_id"`
	SDKVersion string                 `json:"sdk_version"`
	EventType  string                 `json:"event_type"`
	Success    *bool                  `json:"success"`
	ErrorType  string                 `json:"error_type"`
	ChainID    *int64                 `json:"chain_id"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Ingest records one SDK usage event.
// POST /v1/events
func (h *TelemetryHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ClientID == "" || req.SDKVersion == "" || req.EventType == "" || req.Success == nil {
		writeErr(w, http.StatusBadRequest, "client_id, sdk_version, event_type, and success are required")
		return
	}

	event := &model.TelemetryEvent{
		ClientID:   req.ClientID,
		SDKVersion: req.SDKVersion,
		EventType:  req.EventType,
		Success:    *req.Success,
		ErrorType:  req.ErrorType,
		ChainID:    req.ChainID,
	}
	if len(req.Metadata) > 0 {
		meta, err := json.Marshal(req.Metadata)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "Invalid metadata")
			return
		}
		event.MetadataJSON = string(meta)
	}

	if err := h.store.CreateTelemetryEvent(r.Context(), event); err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to record event")
		return
	}

	writeOK(w, http.StatusCreated, map[string]string{"id": event.ID})
}

// List returns the most recent events, newest first.
// GET /v1/events?limit=20
func (h *TelemetryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", 20), 1, 500)

	events, err := h.store.ListTelemetryEvents(r.Context(), limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to load events")
		return
	}
	writeOK(w, http.StatusOK, events)
}

// Stats returns aggregate usage over the requested window.
// GET /v1/stats?days=30
func (h *TelemetryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := clampInt(queryInt(r, "days", 30), 1, 365)
	since := time.Now().UTC().AddDate(0, 0, -days)

	stats, err := h.store.TelemetryStats(r.Context(), since, min(days, 30))
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to aggregate stats")
		return
	}
	writeOK(w, http.StatusOK, stats)
}
