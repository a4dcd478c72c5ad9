package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/oprema/internal/db"
)

// RevokeSession records a session's JTI so the token stops working before it
// expires. Entries past their expiry are swept on the way.
func RevokeSession(ctx context.Context, q db.DBTX, jti string, expiresAt time.Time) error {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt.UTC(),
	); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	if _, err := PurgeRevokedSessions(ctx, q, time.Now()); err != nil {
		return err
	}
	return nil
}

// IsSessionRevoked reports whether a session's JTI has been revoked.
func IsSessionRevoked(ctx context.Context, q db.DBTX, jti string) (bool, error) {
	var revoked bool
	if err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = ?)`, jti,
	).Scan(&revoked); err != nil {
		return false, fmt.Errorf("checking session revocation: %w", err)
	}
	return revoked, nil
}

// PurgeRevokedSessions drops revocations whose tokens expired before now.
// Such tokens already fail signature validation.
func PurgeRevokedSessions(ctx context.Context, q db.DBTX, now time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging revoked sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
