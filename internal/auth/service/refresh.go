package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/learnloop/learnloop/internal/auth/domain"
	"github.com/learnloop/learnloop/pkg/jwtx"
	"github.com/learnloop/learnloop/pkg/slogx"
)

// RefreshService rotates sessions. Refresh tokens are self-contained signed
// claims: presenting a valid one yields a brand-new pair, and there is no
// server-side revocation list. Compromise containment comes from the short
// access TTL and the refresh secret being rotatable out-of-band.
type RefreshService struct {
	Sessions *SessionService
	Codec    *jwtx.Codec
}

// Refresh validates the presented refresh token and mints a new pair. The
// subject must still resolve to a live account; a token for a deleted
// account is refused.
func (s *RefreshService) Refresh(ctx context.Context, refreshToken string) (domain.Account, domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	subject, err := s.Codec.Verify(refreshToken, jwtx.PurposeRefresh)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) || errors.Is(err, jwtx.ErrWrongPurpose) || errors.Is(err, jwtx.ErrMalformed) {
			return domain.Account{}, domain.TokenPair{}, ErrInvalidRefresh
		}
		return domain.Account{}, domain.TokenPair{}, err
	}

	account, err := s.Sessions.Account(ctx, subject)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	pair, err := s.Sessions.IssueSession(ctx, account)
	if err != nil {
		return domain.Account{}, domain.TokenPair{}, err
	}

	l.Info("session refreshed", slog.String("account_id", account.ID))
	return account, pair, nil
}
