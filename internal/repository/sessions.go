package repository

import (
	"context"
	"time"
)

// CreateSession records an issued UI token by its jti.
func (r *PostgresRepository) CreateSession(ctx context.Context, userID int64, tokenID string, expiresAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO sessions (user_id, token_id, expires_at) VALUES ($1, $2, $3)`,
		userID, tokenID, expiresAt)
	return err
}

// RevokeSession revokes a live session. Unknown or already revoked tokens
// yield ErrSessionNotFound.
func (r *PostgresRepository) RevokeSession(ctx context.Context, tokenID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE sessions SET is_revoked = true WHERE token_id = $1 AND NOT is_revoked`,
		tokenID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// IsSessionValid reports whether the token has a live session.
func (r *PostgresRepository) IsSessionValid(ctx context.Context, tokenID string) (bool, error) {
	var valid bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM sessions
		     WHERE token_id = $1 AND NOT is_revoked AND expires_at > NOW()
		 )`,
		tokenID).Scan(&valid)
	return valid, err
}
