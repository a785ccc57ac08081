package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/learnloop/learnloop/internal/auth/domain"
	"github.com/learnloop/learnloop/internal/auth/service"
	"github.com/learnloop/learnloop/pkg/httpx"
)

// accountResponse is the safe projection of an account. Password hashes and
// verification fingerprints never leave the service.
type accountResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	EmailVerified bool      `json:"email_verified"`
	College       string    `json:"college,omitempty"`
	Semester      int       `json:"semester,omitempty"`
	Branch        string    `json:"branch,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toAccountResponse(a domain.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.Name,
		AvatarURL:     a.AvatarURL,
		EmailVerified: a.EmailVerified,
		College:       a.College,
		Semester:      a.Semester,
		Branch:        a.Branch,
		CreatedAt:     a.CreatedAt,
	}
}

// sessionResponse carries the access token in the body. The refresh token is
// deliberately absent; it is delivered via the HTTP-only cookie.
type sessionResponse struct {
	Account     accountResponse `json:"account"`
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
}

func toSessionResponse(a domain.Account, pair domain.TokenPair) sessionResponse {
	return sessionResponse{
		Account:     toAccountResponse(a),
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(pair.ExpiresIn.Seconds()),
	}
}

type healthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

type healthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *healthChecks `json:"checks,omitempty"`
}

// writeServiceError maps service sentinels onto HTTP error responses. Any
// unrecognized error becomes an opaque 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrWeakPassword):
		httpx.WriteError(w, http.StatusBadRequest,
			"weak_password", "Password must be at least 8 characters.")
	case errors.Is(err, service.ErrDuplicateEmail):
		httpx.WriteError(w, http.StatusConflict,
			"duplicate_email", "An account with this email already exists.")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_credentials", "Email or password is incorrect.")
	case errors.Is(err, service.ErrInvalidRefresh):
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_refresh_token", "The refresh token is missing, invalid, or expired.")
	case errors.Is(err, service.ErrAccountGone):
		httpx.WriteError(w, http.StatusUnauthorized,
			"account_gone", "The account no longer exists.")
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		httpx.WriteError(w, http.StatusBadRequest,
			"invalid_or_expired_token", "The link is invalid or has expired. Request a new one.")
	default:
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Something went wrong. Please try again.")
	}
}
