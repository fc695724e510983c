package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Wunenes/Core-Banking-System-Services/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/oauth/token",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := auth.ParseAndValidate(token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				writeError(w, r, http.StatusUnauthorized, "invalid token")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}

		if scope := routeScope(r); scope != "" && !claims.HasScope(scope) {
			writeError(w, r, http.StatusForbidden, "missing required scope")
			return
		}

		ctx := auth.ContextWithCaller(r.Context(), claims.Subject, claims.Scopes)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// routeScope maps a request to the scope it needs. Money movement needs the
// transaction scope, account admin actions need admin.
func routeScope(r *http.Request) string {
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/freeze"), strings.HasSuffix(path, "/close"):
		return auth.ScopeAdmin
	case path == "/v1/transfers", path == "/v1/deposits", path == "/v1/withdrawals",
		strings.HasPrefix(path, "/v1/transactions"):
		return auth.ScopeTransaction
	case path == "/v1/accounts" && r.Method == http.MethodPost:
		return auth.ScopeAccountWrite
	case strings.HasPrefix(path, "/v1/accounts/"), strings.HasPrefix(path, "/v1/users/"):
		return auth.ScopeAccountRead
	}
	return ""
}

// callerFromRequest returns the authenticated subject, if any.
func callerFromRequest(r *http.Request) (string, bool) {
	return auth.SubjectFromContext(r.Context())
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
