package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/models"
)

const userColumns = `id, username, email, password_hash, fname, lname, role, college, department,
	status, suspended_until, mfa_enabled, totp_secret, totp_nonce, totp_last_used_at, created_at, updated_at`

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...any) error
}

// scanUserRow populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FName, &user.LName,
		&user.Role, &user.College, &user.Department,
		&user.Status, &user.SuspendedUntil, &user.MFAEnabled,
		&user.TOTPSecret, &user.TOTPNonce, &user.TOTPLastUsedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.Conn(ctx).QueryRow(ctx, query, id))
}

// GetByLogin finds a user by username or (case-insensitive) email.
func (r *UserRepository) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR LOWER(email) = LOWER($1) LIMIT 1`
	return scanUserRow(r.db.Conn(ctx).QueryRow(ctx, query, identifier))
}

func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 = '' OR role = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, filter.Role, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// ListByRoleInScope returns non-blocked users holding role, narrowed to an org unit when
// college or department is non-empty.
func (r *UserRepository) ListByRoleInScope(ctx context.Context, role, college, department string) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND status <> 'blocked'
		  AND ($2 = '' OR college = $2)
		  AND ($3 = '' OR department = $3)
		ORDER BY created_at
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, role, college, department)
	if err != nil {
		return nil, fmt.Errorf("failed to query users by role: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if user.Status == "" {
		user.Status = models.UserStatusActive
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, fname, lname, role, college, department,
		                   status, suspended_until, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + userColumns

	return scanUserRow(r.db.Conn(ctx).QueryRow(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FName, user.LName,
		user.Role, user.College, user.Department,
		user.Status, user.SuspendedUntil, user.CreatedAt, user.UpdatedAt,
	))
}

// Update writes the admin-editable profile fields.
func (r *UserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET username = $1, email = $2, fname = $3, lname = $4, role = $5, college = $6, department = $7,
		    status = $8, suspended_until = $9, updated_at = $10
		WHERE id = $11
		RETURNING ` + userColumns

	return scanUserRow(r.db.Conn(ctx).QueryRow(ctx, query,
		user.Username, user.Email, user.FName, user.LName, user.Role, user.College, user.Department,
		user.Status, user.SuspendedUntil, user.UpdatedAt, id,
	))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, query, passwordHash, id)
}

// UpdateSuspension persists a restriction state computed by the suspension state machine.
func (r *UserRepository) UpdateSuspension(ctx context.Context, id, status string, until *time.Time) error {
	query := `UPDATE users SET status = $1, suspended_until = $2, updated_at = NOW() WHERE id = $3`
	return r.execOne(ctx, query, status, until, id)
}

// ReconcileSuspension lifts the user's suspension if it expired at or before now.
// It reports whether a row changed; repeating the call is a no-op.
func (r *UserRepository) ReconcileSuspension(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET status = 'active', suspended_until = NULL, updated_at = $2
		WHERE id = $1 AND status = 'suspended' AND suspended_until <= $2
	`

	result, err := r.db.Conn(ctx).Exec(ctx, query, id, now)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *UserRepository) UpdateMFA(ctx context.Context, id string, enabled bool, secret, nonce []byte) error {
	query := `
		UPDATE users SET mfa_enabled = $1, totp_secret = $2, totp_nonce = $3, totp_last_used_at = NULL, updated_at = NOW()
		WHERE id = $4
	`
	return r.execOne(ctx, query, enabled, secret, nonce, id)
}

// MarkTOTPUsed records the time step of an accepted code so it cannot be replayed.
func (r *UserRepository) MarkTOTPUsed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET totp_last_used_at = $1 WHERE id = $2`
	return r.execOne(ctx, query, at, id)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM users WHERE id = $1`, id)
}

// CountByStatus returns user counts keyed by status.
func (r *UserRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countGrouped(ctx, r.db.Conn(ctx), `SELECT status, COUNT(*) FROM users GROUP BY status`)
}

// CountByRole returns user counts keyed by role.
func (r *UserRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	return countGrouped(ctx, r.db.Conn(ctx), `SELECT role, COUNT(*) FROM users GROUP BY role`)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.Conn(ctx).Exec(ctx, query, args...)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// countGrouped scans "key, count" rows into a map.
func countGrouped(ctx context.Context, q database.Querier, query string, args ...any) (map[string]int64, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[key] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}
