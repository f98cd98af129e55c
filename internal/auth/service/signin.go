package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/gatekeeper/pkg/slogx"
)

type SignInService struct {
	Verifier *CredentialVerifier
	Tickets  *TicketBroker
	Sessions *SessionService

	RequireVerifiedEmail bool
}

// SignInEmailPassword checks the first factor. Users with active MFA get a
// ticket to redeem with a code, everyone else a session.
func (s *SignInService) SignInEmailPassword(ctx context.Context, email, password string) (domain.SignInResult, error) {
	res, err := s.signIn(ctx, email, password)
	if err != nil {
		metrics.SignIns.WithLabelValues(resultLabel(err)).Inc()
		return domain.SignInResult{}, err
	}
	if res.Session != nil {
		metrics.SignIns.WithLabelValues("session").Inc()
	} else {
		metrics.SignIns.WithLabelValues("mfa_required").Inc()
	}
	return res, nil
}

func (s *SignInService) signIn(ctx context.Context, email, password string) (domain.SignInResult, error) {
	user, err := s.Verifier.Verify(ctx, email, password)
	if err != nil {
		return domain.SignInResult{}, err
	}

	l := slogx.FromContext(ctx).With(slog.String("user_id", user.ID))
	if user.Disabled {
		l.Info("sign-in refused, user disabled")
		return domain.SignInResult{}, ErrUserDisabled
	}
	if s.RequireVerifiedEmail && !user.EmailVerified {
		l.Info("sign-in refused, email not verified")
		return domain.SignInResult{}, ErrUnverifiedEmail
	}

	if user.HasActiveMFA() {
		ticket, err := s.Tickets.IssueTicket(ctx, user.ID)
		if err != nil {
			return domain.SignInResult{}, err
		}
		l.Info("sign-in needs second factor")
		return domain.SignInResult{MFATicket: ticket}, nil
	}

	sess, err := s.Sessions.IssueSession(ctx, user, []string{jwtx.AMRPassword})
	if err != nil {
		return domain.SignInResult{}, err
	}
	l.Info("signed in")
	return domain.SignInResult{Session: &sess}, nil
}
