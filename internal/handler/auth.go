package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/walletpilot/pilot/internal/keys"
	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/server/middleware"
	"github.com/walletpilot/pilot/internal/service"
	"github.com/walletpilot/pilot/internal/store"
)

// AuthHandler serves account registration, login, sessions, and the
// dashboard's key-management endpoints.
type AuthHandler struct {
	store   *store.Store
	authSvc *service.AuthService
	keySvc  *keys.Service
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.Store, authSvc *service.AuthService, keySvc *keys.Service) *AuthHandler {
	return &AuthHandler{
		store:   st,
		authSvc: authSvc,
		keySvc:  keySvc,
	}
}

// ---------------------------------------------------------------------------
// Signup and login
// ---------------------------------------------------------------------------

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Company  string `json:"company"`
}

type signupResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	APIKey string `json:"apiKey"`
	Plan   string `json:"plan"`
}

// Signup registers a new account and provisions its first API key. The
// plaintext key is returned once and never again.
// POST /v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(req.Email) {
		writeErr(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < 6 {
		writeErr(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	acct, err := h.authSvc.CreateAccount(r.Context(), req.Email, req.Password, req.Name, req.Company)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeErr(w, http.StatusBadRequest, "Email already registered")
			return
		}
		writeErr(w, http.StatusInternalServerError, "Signup failed")
		return
	}

	secret, _, err := h.keySvc.Create(r.Context(), acct.ID, "Default Key")
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Signup failed")
		return
	}

	writeOK(w, http.StatusCreated, signupResponse{
		UserID: acct.ID,
		Email:  acct.Email,
		APIKey: secret,
		Plan:   acct.Plan,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	User         userSummary `json:"user"`
}

type userSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Plan  string `json:"plan"`
}

// Login authenticates an account and returns a session token pair.
// POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	acct, err := h.authSvc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	access, refresh, err := h.authSvc.IssueTokens(r.Context(), acct)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Login failed")
		return
	}

	writeOK(w, http.StatusOK, loginResponse{
		Token:        access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(time.Hour),
		User: userSummary{
			ID:    acct.ID,
			Email: acct.Email,
			Name:  acct.Name,
			Plan:  acct.Plan,
		},
	})
}

// Refresh exchanges a refresh token for a new token pair. The refresh token
// travels in the X-Refresh-Token header, never the Authorization header.
// POST /v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Refresh-Token")
	if token == "" {
		writeErr(w, http.StatusUnauthorized, "Refresh token required")
		return
	}

	access, refresh, err := h.authSvc.Refresh(r.Context(), token)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}

	writeOK(w, http.StatusOK, map[string]interface{}{
		"token":        access,
		"refreshToken": refresh,
		"expiresAt":    time.Now().Add(time.Hour),
	})
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

type profileUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Company   string    `json:"company"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
}

type profileResponse struct {
	User    profileUser        `json:"user"`
	APIKeys []model.APIKeyView `json:"apiKeys"`
}

// Me returns the authenticated account's profile and its key list. Keys are
// rendered as views: display prefix only, never the digest or secret.
// GET /v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	acct, err := h.store.GetAccount(r.Context(), principal.AccountID)
	if err != nil {
		writeErr(w, http.StatusUnauthorized, "Account not found")
		return
	}

	views, err := h.keySvc.List(r.Context(), acct.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "Failed to load API keys")
		return
	}

	writeOK(w, http.StatusOK, profileResponse{
		User: profileUser{
			ID:        acct.ID,
			Email:     acct.Email,
			Name:      acct.Name,
			Company:   acct.Company,
			Plan:      acct.Plan,
			CreatedAt: acct.CreatedAt,
		},
		APIKeys: views,
	})
}

// ---------------------------------------------------------------------------
// Key management
// ---------------------------------------------------------------------------

type createKeyRequest struct {
	Name string `json:"name"`
}

type createKeyResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Key     string `json:"key"`
	Prefix  string `json:"prefix"`
	Message string `json:"message"`
}

// CreateKey issues a new API key for the authenticated account, subject to
// the plan quota.
// POST /v1/auth/keys
func (h *AuthHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	var req createKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	secret, key, err := h.keySvc.Create(r.Context(), principal.AccountID, req.Name)
	if err != nil {
		var quotaErr *keys.QuotaError
		switch {
		case errors.Is(err, keys.ErrInvalidName):
			writeErr(w, http.StatusBadRequest, "Key name must be 1-100 characters")
		case errors.As(err, &quotaErr):
			writeErr(w, http.StatusForbidden,
				fmt.Sprintf("API key limit reached (%d). Upgrade your plan for more.", quotaErr.Limit))
		default:
			writeErr(w, http.StatusInternalServerError, "Failed to create API key")
		}
		return
	}

	writeOK(w, http.StatusOK, createKeyResponse{
		ID:      key.ID,
		Name:    key.Name,
		Key:     secret,
		Prefix:  key.DisplayPrefix,
		Message: "Save this key securely. It will not be shown again.",
	})
}

// DeleteKey removes one of the authenticated account's keys. Missing and
// not-owned keys both return 404.
// DELETE /v1/auth/keys/{id}
func (h *AuthHandler) DeleteKey(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	id := chi.URLParam(r, "id")

	if err := h.keySvc.Delete(r.Context(), id, principal.AccountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeErr(w, http.StatusNotFound, "API key not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}

	writeOK(w, http.StatusOK, map[string]string{"message": "API key deleted"})
}

// validEmail applies the minimal shape check the signup form relies on.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}
