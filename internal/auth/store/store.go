package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by conditional writes whose precondition no
	// longer holds (stale revision, consumed ticket, revoked token).
	ErrConflict = errors.New("store: conflict")
)

// Store is the root data access interface. Drivers implement it and expose
// sub-repositories so a transaction-scoped Store can be handed to the same
// code that works against the plain one.
type Store interface {
	Users() Users
	Tickets() Tickets
	RefreshTokens() RefreshTokens
	ProviderTokens() ProviderTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. A non-nil error from fn rolls
	// the transaction back, nil commits it.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

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

type Users interface {
	// CreateUser inserts the user and its roles. A duplicate email yields
	// ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.NewUser) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// SetTOTPSecret stores secret if the user's mfa_revision still equals
	// expectedRevision, otherwise ErrConflict.
	SetTOTPSecret(ctx context.Context, userID, secret string, expectedRevision int64) error

	// SetActiveMFAType is a compare-and-swap on mfa_revision. Activating
	// without a stored secret is treated as a lost precondition (ErrConflict).
	SetActiveMFAType(ctx context.Context, userID string, t domain.MFAType, expectedRevision int64) error

	SetEmailVerified(ctx context.Context, userID string) error
	SetDisabled(ctx context.Context, userID string, disabled bool) error
}

type Tickets interface {
	CreateTicket(ctx context.Context, t domain.Ticket) error

	// GetLiveTicket returns an unconsumed, unexpired ticket or ErrNotFound.
	GetLiveTicket(ctx context.Context, kind domain.TicketKind, hash string, now time.Time) (domain.Ticket, error)

	// ConsumeTicket marks the ticket used. Exactly one caller wins, the rest
	// get ErrConflict.
	ConsumeTicket(ctx context.Context, kind domain.TicketKind, hash string, now time.Time) error

	DeleteExpiredTickets(ctx context.Context, now time.Time) (int64, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken revokes a live token. A token that is already
	// revoked or expired yields ErrConflict.
	RevokeRefreshToken(ctx context.Context, hash string, now time.Time) error

	RevokeAllUserRefreshTokens(ctx context.Context, userID string, now time.Time) (int64, error)
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}

type ProviderTokens interface {
	// CreateProviderToken links a provider grant to a user. One row per
	// (user, provider); a second insert yields ErrAlreadyExists.
	CreateProviderToken(ctx context.Context, t domain.ProviderToken) error

	GetProviderToken(ctx context.Context, userID, providerID string) (domain.ProviderToken, error)

	// UpdateProviderTokens replaces the access token and, when refreshToken
	// is non-nil, the refresh token. It is a compare-and-swap on revision.
	UpdateProviderTokens(
		ctx context.Context,
		userID, providerID string,
		accessToken string,
		refreshToken *string,
		expectedRevision int64,
		now time.Time,
	) error
}
