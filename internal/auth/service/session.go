package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/learnloop/learnloop/internal/auth/domain"
	"github.com/learnloop/learnloop/internal/auth/store"
	"github.com/learnloop/learnloop/pkg/cryptox"
	"github.com/learnloop/learnloop/pkg/idx"
	"github.com/learnloop/learnloop/pkg/jwtx"
	"github.com/learnloop/learnloop/pkg/slogx"
)

// MinPasswordLength is the minimum accepted password length on registration
// and reset.
const MinPasswordLength = 8

// decoyHash is verified against when a login names an unknown email, so the
// request costs a full argon2id pass either way and timing does not reveal
// whether the account exists.
var decoyHash = func() string {
	h, err := cryptox.HashPassword(cryptox.MustGenerateToken(cryptox.TokenSize128))
	if err != nil {
		panic(err)
	}
	return h
}()

// RegisterParams carries the signup form. Profile fields are optional.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
	College  string
	Semester int
	Branch   string
}

type SessionService struct {
	Codec        *jwtx.Codec
	Store        store.Store
	Verification *VerificationService
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// Register creates an account, kicks off email verification, and signs the
// new account in. The verification mail is sent in the background so a slow
// relay cannot stall the signup response.
func (s *SessionService) Register(ctx context.Context, p RegisterParams) (domain.Account, domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	if len(p.Password) < MinPasswordLength {
		return domain.Account{}, domain.TokenPair{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Email:        domain.NormalizeEmail(p.Email),
		Name:         p.Name,
		PasswordHash: hash,
		College:      p.College,
		Semester:     p.Semester,
		Branch:       p.Branch,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, domain.TokenPair{}, ErrDuplicateEmail
		}
		return domain.Account{}, domain.TokenPair{}, err
	}

	account, err = s.Store.Accounts().GetAccountByID(ctx, account.ID)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	// Writing the verification fingerprint is a store write; only mail
	// delivery is allowed to fail quietly.
	raw, err := s.Verification.IssueEmailVerification(ctx, account.ID)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}
	s.Verification.SendVerificationEmailAsync(ctx, account, raw)

	pair, err := s.IssueSession(ctx, account)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	l.Info("account registered", slog.String("account_id", account.ID))
	return account, pair, nil
}

// Login verifies the credentials and issues a session. An unknown email and a
// wrong password are indistinguishable to the caller.
func (s *SessionService) Login(ctx context.Context, email, password string) (domain.Account, domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, decoyHash)
			return domain.Account{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.Account{}, domain.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		l.Info("login failed", slog.String("account_id", account.ID))
		return domain.Account{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.IssueSession(ctx, account)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	l.Info("login succeeded", slog.String("account_id", account.ID))
	return account, pair, nil
}

// IssueSession mints a fresh access/refresh pair for an already
// authenticated account.
func (s *SessionService) IssueSession(ctx context.Context, account domain.Account) (domain.TokenPair, error) {
	access, err := s.Codec.Issue(account.ID, jwtx.PurposeAccess, s.AccessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.Codec.Issue(account.ID, jwtx.PurposeRefresh, s.RefreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.AccessTTL,
	}, nil
}

// Account returns the account behind an authenticated subject.
func (s *SessionService) Account(ctx context.Context, accountID string) (domain.Account, error) {
	account, err := s.Store.Accounts().GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Account{}, ErrAccountGone
		}
		return domain.Account{}, err
	}
	return account, nil
}
