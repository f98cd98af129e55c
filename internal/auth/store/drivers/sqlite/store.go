package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeeper/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store"
	"github.com/aussiebroadwan/gatekeeper/internal/auth/store/drivers/sqlite/gen"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// DSN builds a modernc.org/sqlite connection string for a database file.
// Every pooled connection gets the same pragmas, and write transactions
// take the RESERVED lock up front so concurrent writers queue on
// busy_timeout instead of failing on upgrade.
func DSN(path string) string {
	v := url.Values{}
	v.Add("_pragma", "busy_timeout(5000)")
	v.Add("_pragma", "journal_mode(WAL)")
	v.Add("_pragma", "foreign_keys(1)")
	v.Set("_txlock", "immediate")
	return "file:" + path + "?" + v.Encode()
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users                   { return &usersRepo{q: s.q, db: s.db} }
func (s *Store) Tickets() store.Tickets               { return &ticketsRepo{q: s.q} }
func (s *Store) RefreshTokens() store.RefreshTokens   { return &refreshTokensRepo{q: s.q} }
func (s *Store) ProviderTokens() store.ProviderTokens { return &providerTokensRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns unique and primary key violations into
// store.ErrAlreadyExists.
func mapConstraint(err error) error {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
		}
	}
	return err
}

// expectOne maps a conditional write that touched nothing onto ErrConflict.
func expectOne(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func millis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func nullMillis(t time.Time) sql.NullInt64 {
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func mapNullMillisPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func mapNullStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		val := ns.String
		return &val
	}
	return nil
}

func mapOptionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapUser(row gen.User, roles []string) domain.User {
	var mfa domain.MFAType
	if row.ActiveMfaType.Valid {
		mfa = domain.MFAType(row.ActiveMfaType.String)
	}

	metadata := map[string]any{}
	if row.Metadata != "" {
		// Written by encodeMetadata, so a decode failure means the row
		// was edited by hand; surface an empty map rather than fail reads.
		_ = json.Unmarshal([]byte(row.Metadata), &metadata)
	}

	return domain.User{
		ID:            row.ID,
		Email:         row.Email,
		PasswordHash:  row.PasswordHash,
		DisplayName:   row.DisplayName,
		AvatarURL:     row.AvatarUrl,
		Locale:        row.Locale,
		DefaultRole:   row.DefaultRole,
		Roles:         roles,
		ActiveMFAType: mfa,
		TOTPSecret:    mapNullStringPtr(row.TotpSecret),
		MFARevision:   row.MfaRevision,
		EmailVerified: row.EmailVerified,
		Disabled:      row.Disabled,
		Metadata:      metadata,
		CreatedAt:     fromMillis(row.CreatedAt),
		UpdatedAt:     fromMillis(row.UpdatedAt),
	}
}

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(b), nil
}

func mapTicket(row gen.Ticket) domain.Ticket {
	return domain.Ticket{
		ID:         row.ID,
		Kind:       domain.TicketKind(row.Kind),
		TokenHash:  row.TokenHash,
		UserID:     row.UserID,
		ExpiresAt:  fromMillis(row.ExpiresAt),
		ConsumedAt: mapNullMillisPtr(row.ConsumedAt),
		CreatedAt:  fromMillis(row.CreatedAt),
	}
}

func mapRefreshToken(row gen.RefreshToken) domain.RefreshToken {
	return domain.RefreshToken{
		ID:        row.ID,
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		SessionID: row.SessionID,
		AMR:       splitAndFilter(row.Amr),
		ExpiresAt: fromMillis(row.ExpiresAt),
		RevokedAt: mapNullMillisPtr(row.RevokedAt),
		CreatedAt: fromMillis(row.CreatedAt),
	}
}

func mapProviderToken(row gen.ProviderToken) domain.ProviderToken {
	return domain.ProviderToken{
		ID:             row.ID,
		UserID:         row.UserID,
		ProviderID:     row.ProviderID,
		ProviderUserID: row.ProviderUserID,
		AccessToken:    row.AccessToken,
		RefreshToken:   mapNullStringPtr(row.RefreshToken),
		Revision:       row.Revision,
		CreatedAt:      fromMillis(row.CreatedAt),
		UpdatedAt:      fromMillis(row.UpdatedAt),
	}
}

func splitAndFilter(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Fields(s)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
