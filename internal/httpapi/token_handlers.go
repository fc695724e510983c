package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Wunenes/Core-Banking-System-Services/internal/auth"
)

// handleToken implements the client-credentials grant for registered
// service clients. Credentials arrive via basic auth or form fields.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.clients == nil {
		writeError(w, r, http.StatusNotImplemented, "token issuance is not configured")
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "malformed form body")
		return
	}
	if grant := r.PostForm.Get("grant_type"); grant != "" && grant != "client_credentials" {
		writeError(w, r, http.StatusBadRequest, "unsupported grant_type")
		return
	}

	id, secret, ok := r.BasicAuth()
	if !ok {
		id = r.PostForm.Get("client_id")
		secret = r.PostForm.Get("client_secret")
	}
	if strings.TrimSpace(id) == "" {
		writeError(w, r, http.StatusBadRequest, "client credentials are required")
		return
	}

	client, err := a.clients.Authenticate(id, secret)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownClient) {
			writeError(w, r, http.StatusUnauthorized, "invalid client credentials")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "authentication error")
		return
	}

	token, err := a.clients.Issue(client)
	if err != nil {
		a.logger.Error("token issuance failed", zap.String("client_id", client.ID), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "token issuance failed")
		return
	}

	a.logger.Info("token issued", zap.String("client_id", client.ID))
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(auth.DefaultTokenTTL / time.Second),
	})
}
