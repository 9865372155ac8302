package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/qnz18/qzwhatnext/internal/identity/application/oauth"
)

type authURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// GoogleAuthURL handles GET /auth/google/auth-url and its
// /auth/google/calendar/auth-url alias.
func (h *Handler) GoogleAuthURL(w http.ResponseWriter, r *http.Request) {
	if h.c.OAuthService == nil {
		writeError(w, http.StatusBadRequest, "google oauth is not configured")
		return
	}

	state, err := randomState()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate oauth state")
		return
	}

	writeJSON(w, http.StatusOK, authURLResponse{
		AuthURL: h.c.OAuthService.AuthURL(state),
		State:   state,
	})
}

// GoogleCallback handles GET /auth/google/callback: the browser redirect
// target after the user grants consent. It exchanges the code the same way
// GoogleCodeExchange does, for callers that prefer a GET redirect flow over
// posting the code directly.
func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}
	h.exchangeCode(w, r, code)
}

type codeExchangeRequest struct {
	Code string `json:"code"`
}

// GoogleCodeExchange handles POST /auth/google/code-exchange.
func (h *Handler) GoogleCodeExchange(w http.ResponseWriter, r *http.Request) {
	var req codeExchangeRequest
	if err := h.decode(r, &req); err != nil || req.Code == "" {
		writeError(w, http.StatusBadRequest, "authorization code is required")
		return
	}
	h.exchangeCode(w, r, req.Code)
}

func (h *Handler) exchangeCode(w http.ResponseWriter, r *http.Request, code string) {
	if h.c.OAuthService == nil {
		writeError(w, http.StatusBadRequest, "google oauth is not configured")
		return
	}

	if _, err := h.c.OAuthService.ExchangeAndStore(r.Context(), h.c.UserID, code); err != nil {
		if errors.Is(err, oauth.ErrInvalidGrant) {
			writeError(w, http.StatusBadRequest, "authorization code was rejected")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
