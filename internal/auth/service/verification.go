package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/learnloop/learnloop/internal/auth/domain"
	"github.com/learnloop/learnloop/internal/auth/email"
	"github.com/learnloop/learnloop/internal/auth/store"
	"github.com/learnloop/learnloop/pkg/cryptox"
	"github.com/learnloop/learnloop/pkg/slogx"
)

const (
	// DefaultVerificationTTL is how long an email verification link stays
	// redeemable.
	DefaultVerificationTTL = 24 * time.Hour
	// DefaultResetTTL is how long a password reset link stays redeemable.
	DefaultResetTTL = time.Hour
)

// VerificationService manages the two single-use mailed artifacts: email
// verification and password reset. Only SHA-256 fingerprints are persisted;
// the raw token travels in the mail and nowhere else. Each account holds at
// most one outstanding artifact per kind, so issuing a new one supersedes
// the previous.
type VerificationService struct {
	Store           store.Store
	Email           email.Sender
	VerificationTTL time.Duration
	ResetTTL        time.Duration

	// Now overrides the clock used for expiry stamps and lookups. Nil means
	// time.Now.
	Now func() time.Time
}

func (s *VerificationService) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// IssueEmailVerification mints a fresh verification token for the account
// and stores its fingerprint, superseding any outstanding one. Returns the
// raw token for delivery.
func (s *VerificationService) IssueEmailVerification(ctx context.Context, accountID string) (string, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	expiresAt := s.clock().Add(s.VerificationTTL)
	if err := s.Store.Accounts().SetEmailVerification(ctx, accountID, cryptox.FingerprintToken(raw), expiresAt); err != nil {
		return "", err
	}
	return raw, nil
}

// RequestEmailVerification issues a token and mails it. Safe to call for an
// already verified account; redeeming is then a no-op gain but harmless.
func (s *VerificationService) RequestEmailVerification(ctx context.Context, account domain.Account) error {
	raw, err := s.IssueEmailVerification(ctx, account.ID)
	if err != nil {
		return err
	}
	return s.Email.SendVerificationEmail(ctx, account.Email, account.Name, raw)
}

// SendVerificationEmailAsync delivers an already issued verification token
// in the background, detached from the request lifetime. Failures are
// logged, not surfaced; the caller can always ask for a resend.
func (s *VerificationService) SendVerificationEmailAsync(ctx context.Context, account domain.Account, rawToken string) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := s.Email.SendVerificationEmail(bg, account.Email, account.Name, rawToken); err != nil {
			slogx.FromContext(bg).Error("email verification delivery failed",
				slog.String("account_id", account.ID), slog.Any("err", err))
		}
	}()
}

// ResendEmailVerification re-issues the verification mail for the named
// email. Unknown or already verified addresses are silently ignored so the
// endpoint cannot be used to probe for accounts.
func (s *VerificationService) ResendEmailVerification(ctx context.Context, emailAddr string) error {
	account, err := s.Store.Accounts().GetAccountByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if account.EmailVerified {
		return nil
	}
	return s.RequestEmailVerification(ctx, account)
}

// RedeemEmailVerification consumes a verification token. The lookup and the
// slot clear happen in one transaction so a token can only ever be redeemed
// once, even under concurrent presentation.
func (s *VerificationService) RedeemEmailVerification(ctx context.Context, rawToken string) (domain.Account, error) {
	fp := cryptox.FingerprintToken(rawToken)

	var account domain.Account
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		account, err = tx.Accounts().GetAccountByEmailVerification(ctx, fp, s.clock())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidOrExpiredToken
			}
			return err
		}
		return tx.Accounts().MarkEmailVerified(ctx, account.ID)
	})
	if err != nil {
		return domain.Account{}, err
	}

	account.EmailVerified = true
	account.EmailVerificationHash = nil
	account.EmailVerificationExpiry = nil

	slogx.FromContext(ctx).Info("email verified", slog.String("account_id", account.ID))
	return account, nil
}

// RequestPasswordReset issues a reset token and mails it. Unknown addresses
// are silently ignored; the HTTP layer answers 202 either way.
func (s *VerificationService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	account, err := s.Store.Accounts().GetAccountByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	expiresAt := s.clock().Add(s.ResetTTL)
	if err := s.Store.Accounts().SetPasswordReset(ctx, account.ID, cryptox.FingerprintToken(raw), expiresAt); err != nil {
		return err
	}

	return s.Email.SendPasswordResetEmail(ctx, account.Email, account.Name, raw)
}

// ValidatePasswordReset checks a reset token without consuming it, so the
// frontend can show the form only for live links. Returns the account email.
func (s *VerificationService) ValidatePasswordReset(ctx context.Context, rawToken string) (string, error) {
	account, err := s.Store.Accounts().GetAccountByPasswordReset(ctx, cryptox.FingerprintToken(rawToken), s.clock())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidOrExpiredToken
		}
		return "", err
	}
	return account.Email, nil
}

// RedeemPasswordReset consumes a reset token and installs the new password.
// Lookup, hash swap, and slot clear run in one transaction.
func (s *VerificationService) RedeemPasswordReset(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}

	fp := cryptox.FingerprintToken(rawToken)

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	var accountID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		account, err := tx.Accounts().GetAccountByPasswordReset(ctx, fp, s.clock())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidOrExpiredToken
			}
			return err
		}
		accountID = account.ID
		return tx.Accounts().CompletePasswordReset(ctx, account.ID, newHash)
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset completed", slog.String("account_id", accountID))
	return nil
}
