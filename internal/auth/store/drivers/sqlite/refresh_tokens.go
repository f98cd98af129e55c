package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite/gen"
)

type refreshTokensRepo struct {
	q *gen.Queries
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	err := r.q.CreateRefreshToken(ctx, gen.CreateRefreshTokenParams{
		ID:        t.ID,
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		SessionID: t.SessionID,
		Amr:       strings.Join(t.AMR, " "),
		ExpiresAt: millis(t.ExpiresAt),
		CreatedAt: millis(t.CreatedAt),
	})
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (domain.RefreshToken, error) {
	row, err := r.q.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	return mapRefreshToken(row), nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string, now time.Time) error {
	return expectOne(r.q.RevokeRefreshToken(ctx, gen.RevokeRefreshTokenParams{
		RevokedAt: nullMillis(now),
		TokenHash: hash,
		ExpiresAt: millis(now),
	}))
}

func (r *refreshTokensRepo) RevokeAllUserRefreshTokens(
	ctx context.Context,
	userID string,
	now time.Time,
) (int64, error) {
	return r.q.RevokeUserRefreshTokens(ctx, gen.RevokeUserRefreshTokensParams{
		RevokedAt: nullMillis(now),
		UserID:    userID,
	})
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredRefreshTokens(ctx, millis(now))
}
