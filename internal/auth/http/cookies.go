package http

import (
	"net/http"
	"time"
)

const (
	refreshCookieName = "ll_refresh"
	stateCookieName   = "ll_oauth_state"

	// stateCookieTTL bounds how long an OAuth round trip may take.
	stateCookieTTL = 10 * time.Minute
)

// CookiePolicy decides the transport attributes of the auth cookies. The
// refresh token only ever travels in an HTTP-only cookie scoped to the auth
// surface; it never appears in a JSON body.
type CookiePolicy struct {
	// Secure switches to Secure + SameSite=None for cross-site production
	// deployments. Off, cookies fall back to SameSite=Lax for local dev
	// over plain HTTP.
	Secure bool
}

func (p CookiePolicy) sameSite() http.SameSite {
	if p.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (p CookiePolicy) SetRefresh(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/v1/auth",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}

func (p CookiePolicy) ClearRefresh(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}

func (p CookiePolicy) SetState(w http.ResponseWriter, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/v1/auth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}

func (p CookiePolicy) ClearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	})
}

func refreshFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(refreshCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func stateFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(stateCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
