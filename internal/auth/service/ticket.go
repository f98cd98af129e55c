package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeeper/pkg/idx"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

const (
	MFATicketPrefix     = "mfaTotp:"
	DefaultMFATicketTTL = 5 * time.Minute
)

// TicketBroker bridges a successful first factor and the TOTP challenge.
type TicketBroker struct {
	Store    store.Store
	MFA      *MFAService
	Sessions *SessionService
	TTL      time.Duration // defaults to DefaultMFATicketTTL
}

// IssueTicket returns a single-use ticket for userID. Only its fingerprint
// is stored.
func (b *TicketBroker) IssueTicket(ctx context.Context, userID string) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	ticket := MFATicketPrefix + token

	ttl := b.TTL
	if ttl <= 0 {
		ttl = DefaultMFATicketTTL
	}

	now := time.Now()
	err = b.Store.Tickets().CreateTicket(ctx, domain.Ticket{
		ID:        idx.NewAt(now).String(),
		Kind:      domain.TicketMFATOTP,
		TokenHash: cryptox.FingerprintToken(ticket),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("store mfa ticket: %w", err)
	}
	return ticket, nil
}

// RedeemTicket resolves a live ticket and a valid code into a session. A
// wrong code leaves the ticket redeemable until it expires; consumption and
// refresh token creation commit together.
func (b *TicketBroker) RedeemTicket(ctx context.Context, ticket, code string) (domain.Session, error) {
	sess, err := b.redeem(ctx, ticket, code)
	if err != nil {
		metrics.TicketRedemptions.WithLabelValues(resultLabel(err)).Inc()
		return domain.Session{}, err
	}
	metrics.TicketRedemptions.WithLabelValues("success").Inc()
	return sess, nil
}

func (b *TicketBroker) redeem(ctx context.Context, ticket, code string) (domain.Session, error) {
	if !strings.HasPrefix(ticket, MFATicketPrefix) {
		return domain.Session{}, ErrInvalidTicket
	}
	hash := cryptox.FingerprintToken(ticket)

	t, err := b.Store.Tickets().GetLiveTicket(ctx, domain.TicketMFATOTP, hash, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, ErrInvalidTicket
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("lookup mfa ticket: %w", err)
	}

	user, err := b.Store.Users().GetUserByID(ctx, t.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Session{}, ErrInvalidTicket
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get user: %w", err)
	}
	if !user.HasActiveMFA() {
		return domain.Session{}, ErrInvalidTicket
	}
	if user.Disabled {
		return domain.Session{}, ErrUserDisabled
	}

	if err := b.MFA.VerifyCode(ctx, user, code); err != nil {
		slogx.FromContext(ctx).Info("mfa ticket code rejected", slog.String("user_id", user.ID))
		return domain.Session{}, err
	}

	var sess domain.Session
	err = b.Store.WithTx(ctx, func(tx store.Tx) error {
		now := time.Now()
		if err := tx.Tickets().ConsumeTicket(ctx, domain.TicketMFATOTP, hash, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInvalidTicket
			}
			return err
		}

		amr := []string{jwtx.AMRPassword, jwtx.AMROTP, jwtx.AMRMFA}
		sess, err = b.Sessions.issue(ctx, tx, user, idx.NewAt(now).String(), amr, now)
		return err
	})
	if err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}
