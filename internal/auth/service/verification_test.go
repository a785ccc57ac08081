package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learnloop/learnloop/pkg/cryptox"
)

func TestEmailVerification(t *testing.T) {
	t.Parallel()

	t.Run("issue and redeem", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		registered := ts.register(t, "verify@example.com", "correct horse battery staple")

		raw, err := ts.Verifications.IssueEmailVerification(ctx, registered.ID)
		require.NoError(t, err)
		require.NotEmpty(t, raw)

		stored, err := ts.Store.Accounts().GetAccountByID(ctx, registered.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.EmailVerificationHash)
		require.NotEqual(t, raw, *stored.EmailVerificationHash, "raw token must never be persisted")
		require.Equal(t, cryptox.FingerprintToken(raw), *stored.EmailVerificationHash)

		account, err := ts.Verifications.RedeemEmailVerification(ctx, raw)
		require.NoError(t, err)
		require.True(t, account.EmailVerified)
		require.Nil(t, account.EmailVerificationHash, "slot must be cleared on redemption")

		stored, err = ts.Store.Accounts().GetAccountByID(ctx, registered.ID)
		require.NoError(t, err)
		require.True(t, stored.EmailVerified)
		require.Nil(t, stored.EmailVerificationHash)
	})

	t.Run("single use", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		registered := ts.register(t, "once@example.com", "correct horse battery staple")

		raw, err := ts.Verifications.IssueEmailVerification(ctx, registered.ID)
		require.NoError(t, err)

		_, err = ts.Verifications.RedeemEmailVerification(ctx, raw)
		require.NoError(t, err)

		_, err = ts.Verifications.RedeemEmailVerification(ctx, raw)
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("reissue supersedes the outstanding token", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		registered := ts.register(t, "supersede@example.com", "correct horse battery staple")

		first, err := ts.Verifications.IssueEmailVerification(ctx, registered.ID)
		require.NoError(t, err)
		second, err := ts.Verifications.IssueEmailVerification(ctx, registered.ID)
		require.NoError(t, err)

		_, err = ts.Verifications.RedeemEmailVerification(ctx, first)
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

		_, err = ts.Verifications.RedeemEmailVerification(ctx, second)
		require.NoError(t, err)
	})

	t.Run("expired token refused", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		registered := ts.register(t, "expired@example.com", "correct horse battery staple")

		raw, err := ts.Verifications.IssueEmailVerification(ctx, registered.ID)
		require.NoError(t, err)

		ts.Verifications.Now = func() time.Time {
			return time.Now().Add(ts.Verifications.VerificationTTL + time.Minute)
		}

		_, err = ts.Verifications.RedeemEmailVerification(ctx, raw)
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("resend swallows unknown and verified addresses", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()

		require.NoError(t, ts.Verifications.ResendEmailVerification(ctx, "nobody@example.com"))

		registered := ts.register(t, "done@example.com", "correct horse battery staple")
		raw, err := ts.Verifications.IssueEmailVerification(ctx, registered.ID)
		require.NoError(t, err)
		_, err = ts.Verifications.RedeemEmailVerification(ctx, raw)
		require.NoError(t, err)

		before := ts.Sender.verificationCount()
		require.NoError(t, ts.Verifications.ResendEmailVerification(ctx, "done@example.com"))
		require.Equal(t, before, ts.Sender.verificationCount(), "verified accounts get no mail")
	})
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()

	t.Run("end to end", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		ts.register(t, "reset@example.com", "old password here")

		require.NoError(t, ts.Verifications.RequestPasswordReset(ctx, "reset@example.com"))
		mail, ok := ts.Sender.lastReset()
		require.True(t, ok, "reset mail must be sent")
		require.Equal(t, "reset@example.com", mail.To)

		emailAddr, err := ts.Verifications.ValidatePasswordReset(ctx, mail.Token)
		require.NoError(t, err)
		require.Equal(t, "reset@example.com", emailAddr)

		require.NoError(t, ts.Verifications.RedeemPasswordReset(ctx, mail.Token, "brand new password"))

		_, _, err = ts.Sessions.Login(ctx, "reset@example.com", "old password here")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, _, err = ts.Sessions.Login(ctx, "reset@example.com", "brand new password")
		require.NoError(t, err)
	})

	t.Run("single use", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		ts.register(t, "resetonce@example.com", "old password here")

		require.NoError(t, ts.Verifications.RequestPasswordReset(ctx, "resetonce@example.com"))
		mail, ok := ts.Sender.lastReset()
		require.True(t, ok)

		require.NoError(t, ts.Verifications.RedeemPasswordReset(ctx, mail.Token, "brand new password"))
		err := ts.Verifications.RedeemPasswordReset(ctx, mail.Token, "yet another password")
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

		_, err = ts.Verifications.ValidatePasswordReset(ctx, mail.Token)
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("new request supersedes the outstanding token", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		ts.register(t, "resetagain@example.com", "old password here")

		require.NoError(t, ts.Verifications.RequestPasswordReset(ctx, "resetagain@example.com"))
		first, ok := ts.Sender.lastReset()
		require.True(t, ok)

		require.NoError(t, ts.Verifications.RequestPasswordReset(ctx, "resetagain@example.com"))
		second, ok := ts.Sender.lastReset()
		require.True(t, ok)
		require.NotEqual(t, first.Token, second.Token)

		err := ts.Verifications.RedeemPasswordReset(ctx, first.Token, "brand new password")
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

		require.NoError(t, ts.Verifications.RedeemPasswordReset(ctx, second.Token, "brand new password"))
	})

	t.Run("expired token refused", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		ts.register(t, "resetlate@example.com", "old password here")

		require.NoError(t, ts.Verifications.RequestPasswordReset(ctx, "resetlate@example.com"))
		mail, ok := ts.Sender.lastReset()
		require.True(t, ok)

		ts.Verifications.Now = func() time.Time {
			return time.Now().Add(ts.Verifications.ResetTTL + time.Minute)
		}

		_, err := ts.Verifications.ValidatePasswordReset(ctx, mail.Token)
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

		err = ts.Verifications.RedeemPasswordReset(ctx, mail.Token, "brand new password")
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("unknown address sends nothing and reveals nothing", func(t *testing.T) {
		ts := newTestStack(t)

		require.NoError(t, ts.Verifications.RequestPasswordReset(context.Background(), "nobody@example.com"))
		_, ok := ts.Sender.lastReset()
		require.False(t, ok)
	})

	t.Run("weak replacement password refused", func(t *testing.T) {
		ts := newTestStack(t)
		ctx := context.Background()
		ts.register(t, "weak@example.com", "old password here")

		require.NoError(t, ts.Verifications.RequestPasswordReset(ctx, "weak@example.com"))
		mail, ok := ts.Sender.lastReset()
		require.True(t, ok)

		err := ts.Verifications.RedeemPasswordReset(ctx, mail.Token, "tiny")
		require.ErrorIs(t, err, ErrWeakPassword)

		// Token survives the refused attempt
		_, err = ts.Verifications.ValidatePasswordReset(ctx, mail.Token)
		require.NoError(t, err)
	})
}
