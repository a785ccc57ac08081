package http

import (
	"encoding/json"
	"net/http"

	"github.com/learnloop/learnloop/internal/auth/service"
	"github.com/learnloop/learnloop/pkg/httpx"
	"github.com/learnloop/learnloop/pkg/slogx"
)

type VerificationHandler struct {
	Verifications *service.VerificationService
}

type tokenRequest struct {
	Token string `json:"token"`
}

func (h *VerificationHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token is required.")
		return
	}

	account, err := h.Verifications.RedeemEmailVerification(ctx, req.Token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

type emailRequest struct {
	Email string `json:"email"`
}

// HandleResendVerification answers 202 whether or not the address is known,
// so the endpoint cannot be used to probe for accounts.
func (h *VerificationHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required.")
		return
	}

	if err := h.Verifications.ResendEmailVerification(ctx, req.Email); err != nil {
		log.Error("resend verification failed", "err", err)
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleForgotPassword answers 202 whether or not the address is known.
func (h *VerificationHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email is required.")
		return
	}

	if err := h.Verifications.RequestPasswordReset(ctx, req.Email); err != nil {
		log.Error("password reset request failed", "err", err)
	}
	w.WriteHeader(http.StatusAccepted)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *VerificationHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token and new_password are required.")
		return
	}

	if err := h.Verifications.RedeemPasswordReset(ctx, req.Token, req.NewPassword); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleValidateReset lets the frontend check a reset link before showing
// the form. The token is not consumed.
func (h *VerificationHandler) HandleValidateReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := r.URL.Query().Get("token")
	if token == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "token query parameter is required.")
		return
	}

	email, err := h.Verifications.ValidatePasswordReset(ctx, token)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"email": email})
}
