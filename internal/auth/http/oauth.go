package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/learnloop/learnloop/internal/auth/federation"
	"github.com/learnloop/learnloop/internal/auth/service"
	"github.com/learnloop/learnloop/pkg/cryptox"
	"github.com/learnloop/learnloop/pkg/httpx"
	"github.com/learnloop/learnloop/pkg/slogx"
)

type OAuthHandler struct {
	Providers   federation.Registry
	Federation  *service.FederationService
	Sessions    *service.SessionService
	Cookies     CookiePolicy
	FrontendURL string
}

// HandleStart redirects the browser to the provider consent screen. A random
// state value is pinned in a short-lived cookie for CSRF protection.
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.Providers.Lookup(r.PathValue("provider"))
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown_provider", "Unknown OAuth provider.")
		return
	}

	state := cryptox.MustGenerateToken(cryptox.TokenSize128)
	h.Cookies.SetState(w, state)

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback finishes the provider round trip: state check, code
// exchange, claim resolution, session issue, then a redirect back to the
// frontend. Failures redirect to the frontend login page with an error code
// instead of rendering JSON at the provider's return URL.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	provider, ok := h.Providers.Lookup(r.PathValue("provider"))
	if !ok {
		httpx.WriteError(w, http.StatusNotFound, "unknown_provider", "Unknown OAuth provider.")
		return
	}

	expected, ok := stateFromRequest(r)
	h.Cookies.ClearState(w)
	got := r.URL.Query().Get("state")
	if !ok || got == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		h.redirectError(w, r, "state_mismatch")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectError(w, r, "access_denied")
		return
	}

	claim, err := provider.FetchClaim(ctx, code)
	if err != nil {
		log.Warn("federated exchange failed", "provider", provider.Name(), "err", err)
		h.redirectError(w, r, "exchange_failed")
		return
	}

	account, err := h.Federation.ResolveClaim(ctx, claim)
	if err != nil {
		log.Warn("federated claim refused", "provider", provider.Name(), "err", err)
		switch {
		case errors.Is(err, service.ErrNoProviderEmail):
			h.redirectError(w, r, "no_provider_email")
		case errors.Is(err, service.ErrUnverifiedProviderMail):
			h.redirectError(w, r, "unverified_provider_email")
		default:
			h.redirectError(w, r, "server_error")
		}
		return
	}

	pair, err := h.Sessions.IssueSession(ctx, account)
	if err != nil {
		log.Error("session issue failed after federated login", "err", err)
		h.redirectError(w, r, "server_error")
		return
	}

	h.Cookies.SetRefresh(w, pair.RefreshToken, h.Sessions.RefreshTTL)

	dest := fmt.Sprintf("%s/auth/callback?token=%s",
		strings.TrimRight(h.FrontendURL, "/"), url.QueryEscape(pair.AccessToken))
	http.Redirect(w, r, dest, http.StatusFound)
}

func (h *OAuthHandler) redirectError(w http.ResponseWriter, r *http.Request, code string) {
	dest := fmt.Sprintf("%s/login?error=%s",
		strings.TrimRight(h.FrontendURL, "/"), url.QueryEscape(code))
	http.Redirect(w, r, dest, http.StatusFound)
}
