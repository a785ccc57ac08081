package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/learnloop/learnloop/internal/auth/domain"
	"github.com/learnloop/learnloop/internal/auth/store"
	"github.com/learnloop/learnloop/pkg/cryptox"
	"github.com/learnloop/learnloop/pkg/idx"
	"github.com/learnloop/learnloop/pkg/slogx"
)

// FederationService resolves provider claims to accounts. Linking is by
// verified email only; a claim the provider does not vouch for never touches
// the store.
type FederationService struct {
	Store store.Store
}

// ResolveClaim applies the trust gate and then finds or provisions the
// account for a federated claim. Provisioned accounts get a random unusable
// password hash and are born verified, since the provider vouched for the
// address.
func (s *FederationService) ResolveClaim(ctx context.Context, claim domain.FederatedClaim) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	if claim.Email == "" {
		return domain.Account{}, ErrNoProviderEmail
	}
	if !claim.EmailVerified {
		l.Info("federated claim refused, unverified email", slog.String("provider", claim.Provider))
		return domain.Account{}, ErrUnverifiedProviderMail
	}

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, claim.Email)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	// Random password so the "hash always present" invariant holds while the
	// credential can never be guessed.
	hash, err := cryptox.HashPassword(cryptox.MustGenerateToken(cryptox.TokenSize256))
	if err != nil {
		return domain.Account{}, err
	}

	account = domain.Account{
		ID:            idx.New().String(),
		Email:         claim.Email,
		Name:          claim.Name,
		AvatarURL:     claim.AvatarURL,
		PasswordHash:  hash,
		EmailVerified: true,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a provisioning race; the other writer's row wins.
			return s.Store.Accounts().GetAccountByEmail(ctx, claim.Email)
		}
		return domain.Account{}, err
	}

	account, err = s.Store.Accounts().GetAccountByID(ctx, account.ID)
	if err != nil {
		return domain.Account{}, err
	}

	l.Info("account provisioned from federated claim",
		slog.String("account_id", account.ID),
		slog.String("provider", claim.Provider),
	)
	return account, nil
}
