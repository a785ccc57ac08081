package store

import (
	"context"
	"errors"
	"time"

	"github.com/learnloop/learnloop/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. The engine only ever holds an Account for the
// duration of one request-scoped operation; there is no in-process cache.
type Store interface {
	Accounts() Accounts

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail looks up an account by normalized email.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// UpdatePasswordHash sets the password_hash (argon2id) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, accountID string, newHash string) error

	// SetEmailVerification stores a fresh email-verification fingerprint and
	// expiry, overwriting any outstanding one (supersession).
	SetEmailVerification(ctx context.Context, accountID string, tokenHash string, expiresAt time.Time) error

	// GetAccountByEmailVerification returns the account whose stored
	// email-verification fingerprint matches and has not expired at now.
	GetAccountByEmailVerification(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error)

	// MarkEmailVerified clears the email-verification slot and flips
	// email_verified in one statement (single-use enforcement).
	MarkEmailVerified(ctx context.Context, accountID string) error

	// SetPasswordReset stores a fresh password-reset fingerprint and expiry,
	// overwriting any outstanding one (supersession).
	SetPasswordReset(ctx context.Context, accountID string, tokenHash string, expiresAt time.Time) error

	// GetAccountByPasswordReset returns the account whose stored
	// password-reset fingerprint matches and has not expired at now.
	GetAccountByPasswordReset(ctx context.Context, tokenHash string, now time.Time) (domain.Account, error)

	// CompletePasswordReset clears the password-reset slot and sets the new
	// password hash in one statement (single-use enforcement).
	CompletePasswordReset(ctx context.Context, accountID string, newHash string) error
}
