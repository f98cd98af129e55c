package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite/gen"
)

type ticketsRepo struct {
	q *gen.Queries
}

func (r *ticketsRepo) CreateTicket(ctx context.Context, t domain.Ticket) error {
	err := r.q.CreateTicket(ctx, gen.CreateTicketParams{
		ID:        t.ID,
		TokenHash: t.TokenHash,
		Kind:      string(t.Kind),
		UserID:    t.UserID,
		ExpiresAt: millis(t.ExpiresAt),
		CreatedAt: millis(t.CreatedAt),
	})
	return mapConstraint(err)
}

func (r *ticketsRepo) GetLiveTicket(
	ctx context.Context,
	kind domain.TicketKind,
	hash string,
	now time.Time,
) (domain.Ticket, error) {
	row, err := r.q.GetLiveTicket(ctx, gen.GetLiveTicketParams{
		TokenHash: hash,
		Kind:      string(kind),
		ExpiresAt: millis(now),
	})
	if err != nil {
		return domain.Ticket{}, mapNotFound(err)
	}
	return mapTicket(row), nil
}

func (r *ticketsRepo) ConsumeTicket(
	ctx context.Context,
	kind domain.TicketKind,
	hash string,
	now time.Time,
) error {
	return expectOne(r.q.ConsumeTicket(ctx, gen.ConsumeTicketParams{
		ConsumedAt: nullMillis(now),
		TokenHash:  hash,
		Kind:       string(kind),
		ExpiresAt:  millis(now),
	}))
}

func (r *ticketsRepo) DeleteExpiredTickets(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredTickets(ctx, millis(now))
}
