package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/learnloop/learnloop/pkg/idx"
)

// Purpose identifies what a token may be used for. The purpose is embedded as
// a claim and each purpose is signed with its own secret, so a leaked access
// signing key cannot mint refresh tokens.
type Purpose string

const (
	PurposeAccess  Purpose = "access"
	PurposeRefresh Purpose = "refresh"
)

// Default token TTLs. Short-lived access tokens, long-lived refresh tokens.
const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

var (
	// ErrMalformed covers structurally invalid tokens and bad signatures.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrExpired is returned when the token expiry is at or before now.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrWrongPurpose is returned when a token issued for one purpose is
	// presented for another (e.g. an access token used to refresh a session).
	ErrWrongPurpose = errors.New("jwtx: wrong token purpose")
)

// Claims carried by every token the codec issues.
type Claims struct {
	jwt.RegisteredClaims

	Purpose Purpose `json:"purpose"`
}

// Codec issues and verifies signed, expiring tokens. Tokens are HS256 JWTs
// with a subject, a purpose claim, and an absolute expiry.
type Codec struct {
	issuer        string
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewCodec builds a Codec. refreshSecret may be empty, in which case refresh
// tokens fall back to the access secret; callers should check DegradedMode
// and log that configuration. now may be nil, defaulting to time.Now.
func NewCodec(issuer string, accessSecret, refreshSecret []byte, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{
		issuer:        issuer,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		now:           now,
	}
}

// DegradedMode reports whether refresh tokens share the access secret because
// no distinct refresh secret was configured.
func (c *Codec) DegradedMode() bool {
	return len(c.refreshSecret) == 0
}

func (c *Codec) secretFor(p Purpose) []byte {
	if p == PurposeRefresh && !c.DegradedMode() {
		return c.refreshSecret
	}
	return c.accessSecret
}

// Issue signs a token binding subject to the given purpose, expiring ttl from
// now. Every token carries a fresh jti, so two tokens minted in the same
// second are still distinct strings.
func (c *Codec) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        idx.New().String(),
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secretFor(purpose))
}

// Verify parses and validates a token and returns its subject. The token must
// carry the expected purpose; a valid token of a different purpose fails with
// ErrWrongPurpose. Expiry is inclusive: a token is rejected once now >= exp.
func (c *Codec) Verify(tokenString string, expected Purpose) (string, error) {
	claims := &Claims{}

	// The signing secret is selected by the token's *claimed* purpose, so a
	// well-signed token of the wrong purpose fails the purpose check below
	// rather than the signature check. A forged purpose claim breaks the
	// signature instead.
	keyFn := func(t *jwt.Token) (any, error) {
		tc, ok := t.Claims.(*Claims)
		if !ok {
			return nil, ErrMalformed
		}
		return c.secretFor(tc.Purpose), nil
	}

	_, err := jwt.ParseWithClaims(tokenString, claims, keyFn,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpired
		}
		return "", ErrMalformed
	}

	if claims.Purpose != expected {
		return "", ErrWrongPurpose
	}

	return claims.Subject, nil
}
