package http

import (
	"net/http"

	"github.com/learnloop/learnloop/internal/auth/service"
	"github.com/learnloop/learnloop/pkg/httpx"
)

type RefreshHandler struct {
	Refresh  *service.RefreshService
	Sessions *service.SessionService
	Cookies  CookiePolicy
}

// HandleRefresh rotates the session. The refresh token comes exclusively
// from the cookie; a new pair is issued and the cookie replaced.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := refreshFromRequest(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized,
			"missing_refresh_token", "No refresh token cookie was presented.")
		return
	}

	account, pair, err := h.Refresh.Refresh(ctx, token)
	if err != nil {
		h.Cookies.ClearRefresh(w)
		writeServiceError(w, err)
		return
	}

	h.Cookies.SetRefresh(w, pair.RefreshToken, h.Sessions.RefreshTTL)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(account, pair))
}

// HandleLogout drops the refresh cookie. Access tokens are stateless and
// simply age out.
func (h *RefreshHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Cookies.ClearRefresh(w)
	w.WriteHeader(http.StatusNoContent)
}
