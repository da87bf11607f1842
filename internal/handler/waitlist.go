package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/walletpilot/pilot/internal/waitlist"
)

// WaitlistHandler serves the public pre-launch signup endpoints.
type WaitlistHandler struct {
	list        waitlist.List
	logger      *slog.Logger
	adminSecret string
}

// NewWaitlistHandler creates a new WaitlistHandler.
func NewWaitlistHandler(list waitlist.List, logger *slog.Logger, adminSecret string) *WaitlistHandler {
	return &WaitlistHandler{
		list:        list,
		logger:      logger,
		adminSecret: adminSecret,
	}
}

type joinRequest struct {
	Email string `json:"email"`
}

// Join adds an email to the waitlist. Duplicates succeed with a different
// message so the form never reveals whether an address was already known
// as an error state.
// POST /waitlist
func (h *WaitlistHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		writeErr(w, http.StatusBadRequest, "A valid email is required")
		return
	}

	added, err := h.list.Add(r.Context(), email)
	if err != nil {
		h.logger.Error("waitlist add failed", "error", err)
		writeErr(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	message := "You're on the list!"
	if !added {
		message = "Already on the list!"
	}
	writeOK(w, http.StatusOK, map[string]string{"message": message})
}

// Count returns the waitlist size. Backend failures degrade to zero
// rather than erroring; the number is cosmetic.
// GET /waitlist/count
func (h *WaitlistHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.list.Count(r.Context())
	if err != nil {
		h.logger.Warn("waitlist count failed", "error", err)
		count = 0
	}
	writeOK(w, http.StatusOK, map[string]int64{"count": count})
}

// List returns every waitlist email. Guarded by the admin secret.
// GET /waitlist/list
func (h *WaitlistHandler) List(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if h.adminSecret == "" || auth != "Bearer "+h.adminSecret {
		writeErr(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	emails, err := h.list.Emails(r.Context())
	if err != nil {
		h.logger.Error("waitlist list failed", "error", err)
		writeErr(w, http.StatusInternalServerError, "Failed to load waitlist")
		return
	}

	writeOK(w, http.StatusOK, map[string]interface{}{
		"count":  len(emails),
		"emails": emails,
	})
}
