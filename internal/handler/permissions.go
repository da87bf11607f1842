package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/server/middleware"
	"github.com/walletpilot/pilot/internal/store"
)

// PermissionHandler serves the wallet-permission request endpoints used by
// SDK clients authenticating with an API key.
type PermissionHandler struct {
	store *store.Store
}

// NewPermissionHandler creates a new PermissionHandler.
func NewPermissionHandler(st *store.Store) *PermissionHandler {
	return &PermissionHandler{store: st}
}

// expiryPattern matches durations like "30d", "12h", "2w", "1m".
var expiryPattern = regexp.MustCompile(`^(\d+)(d|h|w|m)$`)

const defaultExpiryDays = 30

// parseExpiry converts an expiry string into a day count. Hours round up to
// one day, weeks are 7 days, months are 30. Anything unparseable falls back
// to the 30-day default.
func parseExpiry(expiry string) int {
	m := expiryPattern.FindStringSubmatch(expiry)
	if m == nil {
		return defaultExpiryDays
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return defaultExpiryDays
	}
	switch m[2] {
	case "h":
		return 1
	case "w":
		return n * 7
	case "m":
		return n * 30
	default:
		return n
	}
}

type permissionRequest struct {
	Permission map[string]interface{} `json:"permission"`
}

type permissionResponse struct {
	RequestID string    `json:"requestId"`
	DeepLink  string    `json:"deepLink"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Request records a pending permission grant and returns the wallet deep
// link the end user opens to approve it. The permission body is opaque; it
// is wrapped in an ERC-7715 wallet_grantPermissions envelope as submitted.
// POST /v1/permissions/request
func (h *PermissionHandler) Request(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKey(r.Context())

	var req permissionRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Permission) == 0 {
		writeErr(w, http.StatusBadRequest, "Permission object is required")
		return
	}

	expiry, _ := req.Permission["expiry"].(string)
	days := parseExpiry(expiry)
	expiresAt := time.Now().UTC().AddDate(0, 0, days)

	grantRequest := map[string]interface{}{
		"method": "wallet_grantPermissions",
		"params": []interface{}{req.Permission},
	}
	payload, err := json.Marshal(grantRequest)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to build permission request")
		return
	}

	perm := &model.Permission{
		KeyID:       key.ID,
		PayloadJSON: string(payload),
		Status:      model.PermissionPending,
		ExpiresAt:   expiresAt,
	}
	perm.DeepLink = deepLink(payload)

	if err := h.store.CreatePermission(r.Context(), perm); err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to save permission request")
		return
	}

	writeOK(w, http.StatusOK, permissionResponse{
		RequestID: perm.ID,
		DeepLink:  perm.DeepLink,
		ExpiresAt: perm.ExpiresAt,
	})
}

// List returns the calling key's permission records.
// GET /v1/permissions
func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKey(r.Context())

	perms, err := h.store.ListPermissions(r.Context(), key.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to load permissions")
		return
	}
	writeOK(w, http.StatusOK, perms)
}

// Get returns a single permission record, scoped to the calling key.
// GET /v1/permissions/{id}
func (h *PermissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKey(r.Context())
	id := chi.URLParam(r, "id")

	perm, err := h.store.GetPermission(r.Context(), id, key.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "Permission not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "Failed to load permission")
		return
	}
	writeOK(w, http.StatusOK, perm)
}

// Delete removes a permission record. Deleting a record that is already
// gone still succeeds.
// DELETE /v1/permissions/{id}
func (h *PermissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := middleware.GetAPIKey(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.store.DeletePermission(r.Context(), id, key.ID); err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to delete permission")
		return
	}
	writeJSON(w, http.StatusOK, model.Envelope{Success: true})
}

// deepLink builds the MetaMask deep link that carries the grant request to
// the user's wallet.
func deepLink(payload []byte) string {
	return fmt.Sprintf("https://metamask.app.link/dapp/request?payload=%s",
		url.QueryEscape(string(payload)))
}
