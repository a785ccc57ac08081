package http

import (
	"encoding/json"
	"net/http"

	"github.com/learnloop/learnloop/internal/auth/service"
	"github.com/learnloop/learnloop/pkg/httpx"
	"github.com/learnloop/learnloop/pkg/slogx"
)

type SessionHandler struct {
	Sessions *service.SessionService
	Cookies  CookiePolicy
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	College  string `json:"college"`
	Semester int    `json:"semester"`
	Branch   string `json:"branch"`
}

func (h *SessionHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email, password and name are required.")
		return
	}

	account, pair, err := h.Sessions.Register(ctx, service.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		College:  req.College,
		Semester: req.Semester,
		Branch:   req.Branch,
	})
	if err != nil {
		log.Warn("registration failed", "err", err)
		writeServiceError(w, err)
		return
	}

	h.Cookies.SetRefresh(w, pair.RefreshToken, h.Sessions.RefreshTTL)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(account, pair))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body.")
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required.")
		return
	}

	account, pair, err := h.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.Cookies.SetRefresh(w, pair.RefreshToken, h.Sessions.RefreshTTL)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(account, pair))
}
