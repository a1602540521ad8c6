package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// claimsKey is the context key for validated claims.
type claimsKey struct{}

// ClaimsFromContext returns the caller's claims, or nil for unauthenticated
// requests.
func ClaimsFromContext(ctx context.Context) *Claims {
	if c, ok := ctx.Value(claimsKey{}).(*Claims); ok {
		return c
	}
	return nil
}

// readerPaths are the cached-read endpoints a reader token may call.
var readerPaths = map[string]bool{
	"/api/v1/ppp/profiles":  true,
	"/api/v1/ppp/secrets":   true,
	"/api/v1/ppp/customers": true,
	"/api/v1/auth/whoami":   true,
	"/api/v1/health":        true,
	"/api/v1/plugins":       true,
}

// Guard wires token authentication into the HTTP server.
type Guard struct {
	tokens *TokenService
}

// NewGuard creates a Guard backed by tokens.
func NewGuard(tokens *TokenService) *Guard {
	return &Guard{tokens: tokens}
}

// RegisterRoutes mounts the token introspection endpoint.
func (g *Guard) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/auth/whoami", handleWhoami)
}

// Middleware returns the authentication middleware.
func (g *Guard) Middleware() func(http.Handler) http.Handler {
	return Middleware(g.tokens)
}

// Middleware validates bearer tokens on /api/ routes. Non-API paths
// (healthz, readyz, metrics, swagger) pass through. Reader tokens are
// limited to cached reads and listings.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			if claims.Role == RoleReader && !readerAllowed(r) {
				writeAuthError(w, http.StatusForbidden, "reader tokens may only read the mirror")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func readerAllowed(r *http.Request) bool {
	if readerPaths[r.URL.Path] {
		return true
	}
	return r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/v1/devices/")
}

// WhoamiResponse describes the caller's token.
type WhoamiResponse struct {
	Subject   string `json:"subject" example:"billing"`
	Role      string `json:"role" example:"operator"`
	ExpiresAt string `json:"expires_at,omitempty" example:"2026-12-01T00:00:00Z"`
}

// handleWhoami returns the claims of the presented token.
//
//	@Summary		Token introspection
//	@Description	Returns the subject and role of the bearer token.
//	@Tags			auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	WhoamiResponse
//	@Failure		401	{object}	models.APIProblem
//	@Router			/auth/whoami [get]
func handleWhoami(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFromContext(r.Context())
	if c == nil {
		writeAuthError(w, http.StatusUnauthorized, "authentication is disabled")
		return
	}
	resp := WhoamiResponse{Subject: c.Subject, Role: c.Role}
	if c.ExpiresAt != nil {
		resp.ExpiresAt = c.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeAuthError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://pppmirror.dev/problems/auth-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
