package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestCodec(clock *fakeClock) *Codec {
	return NewCodec("test-issuer",
		[]byte("access-secret-for-tests"),
		[]byte("refresh-secret-for-tests"),
		clock.Now,
	)
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(clock)

	t.Run("access token round trip", func(t *testing.T) {
		token, err := codec.Issue("account-123", PurposeAccess, time.Hour)
		require.NoError(t, err)

		subject, err := codec.Verify(token, PurposeAccess)
		require.NoError(t, err)
		require.Equal(t, "account-123", subject)
	})

	t.Run("refresh token round trip", func(t *testing.T) {
		token, err := codec.Issue("account-456", PurposeRefresh, 30*24*time.Hour)
		require.NoError(t, err)

		subject, err := codec.Verify(token, PurposeRefresh)
		require.NoError(t, err)
		require.Equal(t, "account-456", subject)
	})
}

func TestCodecPurposeIsolation(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(clock)

	t.Run("access token refused as refresh", func(t *testing.T) {
		token, err := codec.Issue("account-123", PurposeAccess, time.Hour)
		require.NoError(t, err)

		_, err = codec.Verify(token, PurposeRefresh)
		require.ErrorIs(t, err, ErrWrongPurpose)
	})

	t.Run("refresh token refused as access", func(t *testing.T) {
		token, err := codec.Issue("account-123", PurposeRefresh, time.Hour)
		require.NoError(t, err)

		_, err = codec.Verify(token, PurposeAccess)
		require.ErrorIs(t, err, ErrWrongPurpose)
	})

	t.Run("forged purpose claim breaks the signature", func(t *testing.T) {
		// Sign with the access secret but claim to be a refresh token. The
		// verifier selects the refresh secret from the claim, so the
		// signature no longer checks out.
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "test-issuer",
				Subject:   "account-123",
				IssuedAt:  jwt.NewNumericDate(clock.now),
				ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
			},
			Purpose: PurposeRefresh,
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte("access-secret-for-tests"))
		require.NoError(t, err)

		_, err = codec.Verify(forged, PurposeRefresh)
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestCodecExpiry(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: base}
	codec := newTestCodec(clock)

	token, err := codec.Issue("account-123", PurposeAccess, time.Minute)
	require.NoError(t, err)

	t.Run("valid just before expiry", func(t *testing.T) {
		clock.now = base.Add(time.Minute - time.Second)
		_, err := codec.Verify(token, PurposeAccess)
		require.NoError(t, err)
	})

	t.Run("expired exactly at expiry", func(t *testing.T) {
		clock.now = base.Add(time.Minute)
		_, err := codec.Verify(token, PurposeAccess)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("expired after expiry", func(t *testing.T) {
		clock.now = base.Add(time.Hour)
		_, err := codec.Verify(token, PurposeAccess)
		require.ErrorIs(t, err, ErrExpired)
	})
}

func TestCodecMalformed(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(clock)

	t.Run("garbage input", func(t *testing.T) {
		_, err := codec.Verify("not-a-token", PurposeAccess)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := codec.Verify("", PurposeAccess)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("foreign signature", func(t *testing.T) {
		other := NewCodec("test-issuer",
			[]byte("some-other-secret"), []byte("another-secret"), clock.Now)
		token, err := other.Issue("account-123", PurposeAccess, time.Hour)
		require.NoError(t, err)

		_, err = codec.Verify(token, PurposeAccess)
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		other := NewCodec("someone-else",
			[]byte("access-secret-for-tests"), []byte("refresh-secret-for-tests"), clock.Now)
		token, err := other.Issue("account-123", PurposeAccess, time.Hour)
		require.NoError(t, err)

		_, err = codec.Verify(token, PurposeAccess)
		require.ErrorIs(t, err, ErrMalformed)
	})
}

func TestCodecDegradedMode(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	degraded := NewCodec("test-issuer", []byte("only-secret"), nil, clock.Now)

	require.True(t, degraded.DegradedMode())
	require.False(t, newTestCodec(clock).DegradedMode())

	t.Run("refresh tokens still work on the shared secret", func(t *testing.T) {
		token, err := degraded.Issue("account-123", PurposeRefresh, time.Hour)
		require.NoError(t, err)

		subject, err := degraded.Verify(token, PurposeRefresh)
		require.NoError(t, err)
		require.Equal(t, "account-123", subject)
	})

	t.Run("purpose check still applies", func(t *testing.T) {
		token, err := degraded.Issue("account-123", PurposeAccess, time.Hour)
		require.NoError(t, err)

		_, err = degraded.Verify(token, PurposeRefresh)
		require.ErrorIs(t, err, ErrWrongPurpose)
	})
}
