package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/walletpilot/pilot/internal/keys"
	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/service"
)

type contextKeyAuth string

const (
	// SessionKey is the context key for the authenticated account principal.
	SessionKey contextKeyAuth = "session_principal"
	// APIKeyKey is the context key for the authenticated API key record.
	APIKeyKey contextKeyAuth = "api_key"
)

// SessionAuth returns an HTTP middleware that validates the Authorization
// Bearer token as a session access token. On success the account principal
// is attached to the request context; on failure a 401 envelope is returned.
func SessionAuth(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			principal, err := authSvc.ValidateToken(r.Context(), token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// KeyAuth returns an HTTP middleware that validates the Authorization
// Bearer token as an API key secret. Malformed, unknown, and revoked
// secrets all produce the same 401 response.
func KeyAuth(keySvc *keys.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secret := bearerToken(r)
			if secret == "" {
				writeAuthError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			key, err := keySvc.Validate(r.Context(), secret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), APIKeyKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal extracts the authenticated account principal from the
// context. Returns nil for unauthenticated requests.
func GetPrincipal(ctx context.Context) *service.Principal {
	if p, ok := ctx.Value(SessionKey).(*service.Principal); ok {
		return p
	}
	return nil
}

// GetAPIKey extracts the authenticated API key record from the context.
// Returns nil for unauthenticated requests.
func GetAPIKey(ctx context.Context) *model.APIKey {
	if k, ok := ctx.Value(APIKeyKey).(*model.APIKey); ok {
		return k
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Manually construct JSON to avoid import cycle with handler package
	w.Write([]byte(`{"success":false,"error":"` + message + `"}`))
}
