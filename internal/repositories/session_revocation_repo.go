package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/models"
)

// SessionRevocationRepository is the logout blocklist for session tokens.
type SessionRevocationRepository struct {
	db *database.DB
}

func NewSessionRevocationRepository(db *database.DB) *SessionRevocationRepository {
	return &SessionRevocationRepository{db: db}
}

// Revoke adds a session token to the blocklist. Revoking twice is harmless.
func (r *SessionRevocationRepository) Revoke(ctx context.Context, rev *models.SessionRevocation) error {
	query := `
		INSERT INTO session_revocations (jti, user_id, expires_at, revoked_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (jti) DO NOTHING
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query, rev.JTI, rev.UserID, rev.ExpiresAt)
	return database.MapPostgresError(err)
}

// IsRevoked checks if a session token is in the blocklist
func (r *SessionRevocationRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM session_revocations WHERE jti = $1)`

	var exists bool
	if err := r.db.Conn(ctx).QueryRow(ctx, query, jti).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}

// CleanupExpired removes entries whose tokens would have expired anyway
func (r *SessionRevocationRepository) CleanupExpired(ctx context.Context) (int64, error) {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM session_revocations WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
