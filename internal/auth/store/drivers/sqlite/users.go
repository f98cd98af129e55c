package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries

	// db is set outside a transaction so multi-statement writes can open
	// their own.
	db *sql.DB
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.NewUser) error {
	if r.db == nil {
		return createUser(ctx, r.q, u)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := createUser(ctx, r.q.WithTx(tx), u); err != nil {
		return err
	}
	return tx.Commit()
}

func createUser(ctx context.Context, q *gen.Queries, u domain.NewUser) error {
	metadata, err := encodeMetadata(u.Metadata)
	if err != nil {
		return err
	}

	now := millis(u.CreatedAt)
	err = q.CreateUser(ctx, gen.CreateUserParams{
		ID:            u.ID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		DisplayName:   u.DisplayName,
		AvatarUrl:     u.AvatarURL,
		Locale:        u.Locale,
		DefaultRole:   u.DefaultRole,
		EmailVerified: u.EmailVerified,
		Disabled:      u.Disabled,
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return mapConstraint(err)
	}

	for _, role := range u.Roles {
		if err := q.AddUserRole(ctx, gen.AddUserRoleParams{
			UserID:    u.ID,
			Role:      role,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("add role %q: %w", role, err)
		}
	}
	return nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.withRoles(ctx, row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return r.withRoles(ctx, row)
}

func (r *usersRepo) withRoles(ctx context.Context, row gen.User) (domain.User, error) {
	roles, err := r.q.ListUserRoles(ctx, row.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("list roles: %w", err)
	}
	return mapUser(row, roles), nil
}

func (r *usersRepo) SetTOTPSecret(
	ctx context.Context,
	userID, secret string,
	expectedRevision int64,
) error {
	return expectOne(r.q.SetUserTOTPSecret(ctx, gen.SetUserTOTPSecretParams{
		TotpSecret:  sql.NullString{String: secret, Valid: true},
		UpdatedAt:   millis(time.Now()),
		ID:          userID,
		MfaRevision: expectedRevision,
	}))
}

func (r *usersRepo) SetActiveMFAType(
	ctx context.Context,
	userID string,
	t domain.MFAType,
	expectedRevision int64,
) error {
	return expectOne(r.q.SetUserActiveMFAType(ctx, gen.SetUserActiveMFATypeParams{
		ActiveMfaType: sql.NullString{String: string(t), Valid: t != domain.MFANone},
		UpdatedAt:     millis(time.Now()),
		ID:            userID,
		MfaRevision:   expectedRevision,
	}))
}

func (r *usersRepo) SetEmailVerified(ctx context.Context, userID string) error {
	err := expectOne(r.q.SetUserEmailVerified(ctx, gen.SetUserEmailVerifiedParams{
		UpdatedAt: millis(time.Now()),
		ID:        userID,
	}))
	if errors.Is(err, store.ErrConflict) {
		return store.ErrNotFound
	}
	return err
}

func (r *usersRepo) SetDisabled(ctx context.Context, userID string, disabled bool) error {
	err := expectOne(r.q.SetUserDisabled(ctx, gen.SetUserDisabledParams{
		Disabled:  disabled,
		UpdatedAt: millis(time.Now()),
		ID:        userID,
	}))
	if errors.Is(err, store.ErrConflict) {
		return store.ErrNotFound
	}
	return err
}
