package service

import (
	"context"
	"log/slog"
)

// Notifier delivers out-of-band messages to users.
type Notifier interface {
	SendEmailVerification(ctx context.Context, email, ticket string) error
}

// LogNotifier writes messages to the log instead of delivering them. The
// ticket is only logged at debug level.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendEmailVerification(ctx context.Context, email, ticket string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email verification requested", slog.String("email", email))
	logger.DebugContext(ctx, "email verification ticket", slog.String("email", email), slog.String("ticket", ticket))
	return nil
}
