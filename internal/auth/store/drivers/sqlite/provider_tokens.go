package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite/gen"
)

type providerTokensRepo struct {
	q *gen.Queries
}

func (r *providerTokensRepo) CreateProviderToken(ctx context.Context, t domain.ProviderToken) error {
	err := r.q.CreateProviderToken(ctx, gen.CreateProviderTokenParams{
		ID:             t.ID,
		UserID:         t.UserID,
		ProviderID:     t.ProviderID,
		ProviderUserID: t.ProviderUserID,
		AccessToken:    t.AccessToken,
		RefreshToken:   mapOptionalString(t.RefreshToken),
		CreatedAt:      millis(t.CreatedAt),
		UpdatedAt:      millis(t.CreatedAt),
	})
	return mapConstraint(err)
}

func (r *providerTokensRepo) GetProviderToken(
	ctx context.Context,
	userID, providerID string,
) (domain.ProviderToken, error) {
	row, err := r.q.GetProviderToken(ctx, gen.GetProviderTokenParams{
		UserID:     userID,
		ProviderID: providerID,
	})
	if err != nil {
		return domain.ProviderToken{}, mapNotFound(err)
	}
	return mapProviderToken(row), nil
}

func (r *providerTokensRepo) UpdateProviderTokens(
	ctx context.Context,
	userID, providerID string,
	accessToken string,
	refreshToken *string,
	expectedRevision int64,
	now time.Time,
) error {
	return expectOne(r.q.UpdateProviderTokens(ctx, gen.UpdateProviderTokensParams{
		AccessToken:  accessToken,
		RefreshToken: mapOptionalString(refreshToken),
		UpdatedAt:    millis(now),
		UserID:       userID,
		ProviderID:   providerID,
		Revision:     expectedRevision,
	}))
}
