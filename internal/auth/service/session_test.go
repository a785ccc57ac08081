package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop/internal/auth/store"
	"github.com/learnloop/learnloop/pkg/jwtx"
)

// brokenVerificationStore delegates to a real store but fails the email
// verification fingerprint write.
type brokenVerificationStore struct {
	store.Store
	err error
}

func (s *brokenVerificationStore) Accounts() store.Accounts {
	return &brokenVerificationAccounts{Accounts: s.Store.Accounts(), err: s.err}
}

type brokenVerificationAccounts struct {
	store.Accounts
	err error
}

func (a *brokenVerificationAccounts) SetEmailVerification(ctx context.Context, accountID string, tokenHash string, expiresAt time.Time) error {
	return a.err
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates account and issues session", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()

		account, pair, err := ts.Sessions.Register(ctx, RegisterParams{
			Email:    "  Student@Example.COM ",
			Password: "correct horse battery staple",
			Name:     "Student",
			College:  "NIT Trichy",
			Semester: 4,
			Branch:   "CSE",
		})
		require.NoError(t, err)

		require.Equal(t, "student@example.com", account.Email, "email must be stored normalized")
		require.False(t, account.EmailVerified)
		require.Equal(t, "NIT Trichy", account.College)
		require.Equal(t, 4, account.Semester)
		require.NotEmpty(t, account.PasswordHash)

		subject, err := ts.Codec.Verify(pair.AccessToken, jwtx.PurposeAccess)
		require.NoError(t, err)
		require.Equal(t, account.ID, subject)

		subject, err = ts.Codec.Verify(pair.RefreshToken, jwtx.PurposeRefresh)
		require.NoError(t, err)
		require.Equal(t, account.ID, subject)

		stored, err := ts.Store.Accounts().GetAccountByID(ctx, account.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.EmailVerificationHash, "verification artifact must be outstanding")
		require.NotNil(t, stored.EmailVerificationExpiry)

		require.Eventually(t, func() bool {
			return ts.Sender.verificationCount() == 1
		}, time.Second, 10*time.Millisecond, "verification mail should go out in the background")
	})

	t.Run("duplicate email refused", func(t *testing.T) {
		ts := newTestStack(t)
		ts.register(t, "taken@example.com", "correct horse battery staple")

		_, _, err := ts.Sessions.Register(context.Background(), RegisterParams{
			Email:    "TAKEN@example.com",
			Password: "another fine password",
			Name:     "Impostor",
		})
		require.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("verification write failure fails the signup", func(t *testing.T) {
		ts := newTestStack(t)
		sentinel := errors.New("verification write refused")
		broken := &brokenVerificationStore{Store: ts.Store, err: sentinel}
		ts.Sessions.Store = broken
		ts.Verifications.Store = broken

		_, _, err := ts.Sessions.Register(context.Background(), RegisterParams{
			Email:    "doomed@example.com",
			Password: "correct horse battery staple",
			Name:     "Doomed",
		})
		require.ErrorIs(t, err, sentinel)
		require.Zero(t, ts.Sender.verificationCount(), "no mail may go out without a stored artifact")
	})

	t.Run("short password refused", func(t *testing.T) {
		ts := newTestStack(t)

		_, _, err := ts.Sessions.Register(context.Background(), RegisterParams{
			Email:    "short@example.com",
			Password: "tiny",
			Name:     "Short",
		})
		require.ErrorIs(t, err, ErrWeakPassword)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials", func(t *testing.T) {
		ts := newTestStack(t)
		registered := ts.register(t, "login@example.com", "correct horse battery staple")

		account, pair, err := ts.Sessions.Login(context.Background(), "login@example.com", "correct horse battery staple")
		require.NoError(t, err)
		require.Equal(t, registered.ID, account.ID)

		subject, err := ts.Codec.Verify(pair.AccessToken, jwtx.PurposeAccess)
		require.NoError(t, err)
		require.Equal(t, account.ID, subject)
	})

	t.Run("wrong password", func(t *testing.T) {
		ts := newTestStack(t)
		ts.register(t, "login@example.com", "correct horse battery staple")

		_, _, err := ts.Sessions.Login(context.Background(), "login@example.com", "wrong password entirely")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		ts := newTestStack(t)

		_, _, err := ts.Sessions.Login(context.Background(), "nobody@example.com", "whatever password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAccount(t *testing.T) {
	t.Parallel()
	ts := newTestStack(t)
	registered := ts.register(t, "me@example.com", "correct horse battery staple")

	account, err := ts.Sessions.Account(context.Background(), registered.ID)
	require.NoError(t, err)
	require.Equal(t, registered.Email, account.Email)

	_, err = ts.Sessions.Account(context.Background(), "no-such-id")
	require.ErrorIs(t, err, ErrAccountGone)
}
