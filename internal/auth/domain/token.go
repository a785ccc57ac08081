package domain

import "time"

// TokenPair is the outcome of issuing a session: a short-lived access token
// for the response body and a longer-lived refresh token that is delivered
// only via an HTTP-only cookie, never in JSON.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // access token lifetime
}
