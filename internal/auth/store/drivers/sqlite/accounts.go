package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/learnloop/learnloop/internal/auth/domain"
	"github.com/learnloop/learnloop/internal/auth/store"
)

type accountsRepo struct {
	db dbtx
}

const accountColumns = `id, email, name, avatar_url, password_hash, email_verified,
	college, semester, branch,
	email_verification_hash, email_verification_expires_at,
	password_reset_hash, password_reset_expires_at,
	created_at, updated_at`

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a                 domain.Account
		verificationHash  sql.NullString
		verificationUntil sql.NullTime
		resetHash         sql.NullString
		resetUntil        sql.NullTime
	)

	err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.AvatarURL, &a.PasswordHash, &a.EmailVerified,
		&a.College, &a.Semester, &a.Branch,
		&verificationHash, &verificationUntil,
		&resetHash, &resetUntil,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.EmailVerificationHash = mapNullStringPtr(verificationHash)
	a.EmailVerificationExpiry = mapNullTimePtr(verificationUntil)
	a.PasswordResetHash = mapNullStringPtr(resetHash)
	a.PasswordResetExpiry = mapNullTimePtr(resetUntil)

	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`,
		domain.NormalizeEmail(email))
	return scanAccount(row)
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (
			id, email, name, avatar_url, password_hash, email_verified,
			college, semester, branch,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, domain.NormalizeEmail(a.Email), a.Name, a.AvatarURL,
		a.PasswordHash, a.EmailVerified,
		a.College, a.Semester, a.Branch,
		a.CreatedAt, a.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) SetEmailVerification(ctx context.Context, accountID string, tokenHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET email_verification_hash = ?,
		    email_verification_expires_at = ?,
		    updated_at = ?
		WHERE id = ?`,
		tokenHash, expiresAt.UTC(), time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) GetAccountByEmailVerification(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE email_verification_hash = ?
		  AND email_verification_expires_at > ?`,
		tokenHash, now.UTC())
	return scanAccount(row)
}

func (r *accountsRepo) MarkEmailVerified(ctx context.Context, accountID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET email_verified = 1,
		    email_verification_hash = NULL,
		    email_verification_expires_at = NULL,
		    updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) SetPasswordReset(ctx context.Context, accountID string, tokenHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET password_reset_hash = ?,
		    password_reset_expires_at = ?,
		    updated_at = ?
		WHERE id = ?`,
		tokenHash, expiresAt.UTC(), time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *accountsRepo) GetAccountByPasswordReset(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE password_reset_hash = ?
		  AND password_reset_expires_at > ?`,
		tokenHash, now.UTC())
	return scanAccount(row)
}

func (r *accountsRepo) CompletePasswordReset(ctx context.Context, accountID string, newHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET password_hash = ?,
		    password_reset_hash = NULL,
		    password_reset_expires_at = NULL,
		    updated_at = ?
		WHERE id = ?`,
		newHash, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

// requireRowAffected converts a zero-row UPDATE into ErrNotFound so writes
// against missing accounts surface the same way reads do.
func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
