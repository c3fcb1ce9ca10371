package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/models"
)

// ComplaintLogRepository handles the moderation and submission event log
type ComplaintLogRepository struct {
	db *database.DB
}

func NewComplaintLogRepository(db *database.DB) *ComplaintLogRepository {
	return &ComplaintLogRepository{db: db}
}

// Create appends an entry. An empty UserID is stored as NULL, the system actor.
func (r *ComplaintLogRepository) Create(ctx context.Context, log *models.ComplaintLog) (*models.ComplaintLog, error) {
	log.ID = uuid.New().String()
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO complaint_logs (id, user_id, action, details, created_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5)
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query, log.ID, log.UserID, log.Action, log.Details, log.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create complaint log: %w", database.MapPostgresError(err))
	}

	return log, nil
}

// List returns log entries newest first, filtered by action and actor when set.
func (r *ComplaintLogRepository) List(ctx context.Context, filter models.LogFilter) ([]*models.ComplaintLog, error) {
	query := `
		SELECT id, COALESCE(user_id::text, ''), action, details, created_at
		FROM complaint_logs
		WHERE ($1 = '' OR action = $1) AND ($2 = '' OR user_id::text = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, filter.Action, filter.UserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaint logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*models.ComplaintLog, 0)
	for rows.Next() {
		var l models.ComplaintLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan complaint log: %w", err)
		}
		logs = append(logs, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaint log rows: %w", err)
	}

	return logs, nil
}

// CountSince counts entries with the given action created at or after since.
func (r *ComplaintLogRepository) CountSince(ctx context.Context, action string, since time.Time) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM complaint_logs WHERE action = $1 AND created_at >= $2`
	if err := r.db.Conn(ctx).QueryRow(ctx, query, action, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count complaint logs: %w", err)
	}
	return count, nil
}

// Cleanup removes log entries older than the specified number of days
func (r *ComplaintLogRepository) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
		DELETE FROM complaint_logs
		WHERE created_at < CURRENT_TIMESTAMP - INTERVAL '1 day' * $1
	`

	result, err := r.db.Conn(ctx).Exec(ctx, query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup complaint logs: %w", err)
	}

	return result.RowsAffected(), nil
}
