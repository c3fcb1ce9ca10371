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

const escalationColumns = `e.id, e.complaint_id, e.action_type, e.escalated_to, e.escalated_by, e.status,
	e.college, e.department, e.original_handler_id, e.resolution_details, e.created_at, e.resolved_at, c.title`

const escalationFrom = ` FROM escalations e JOIN complaints c ON c.id = e.complaint_id`

// EscalationRepository stores the append-only assignment/escalation timeline.
type EscalationRepository struct {
	db *database.DB
}

func NewEscalationRepository(db *database.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

func scanEscalationRow(row rowScanner) (*models.Escalation, error) {
	var e models.Escalation

	err := row.Scan(
		&e.ID, &e.ComplaintID, &e.ActionType, &e.EscalatedTo, &e.EscalatedBy, &e.Status,
		&e.College, &e.Department, &e.OriginalHandlerID, &e.ResolutionDetails, &e.CreatedAt, &e.ResolvedAt,
		&e.ComplaintTitle,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &e, nil
}

func scanEscalationRows(rows pgx.Rows) ([]*models.Escalation, error) {
	defer rows.Close()

	escalations := make([]*models.Escalation, 0)

	for rows.Next() {
		e, err := scanEscalationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escalation: %w", err)
		}
		escalations = append(escalations, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escalation rows: %w", err)
	}

	return escalations, nil
}

func (r *EscalationRepository) Create(ctx context.Context, e *models.Escalation) (*models.Escalation, error) {
	e.ID = uuid.New().String()
	e.Status = models.EscalationStatusPending
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO escalations (id, complaint_id, action_type, escalated_to, escalated_by, status,
		                         college, department, original_handler_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query,
		e.ID, e.ComplaintID, e.ActionType, e.EscalatedTo, e.EscalatedBy, e.Status,
		e.College, e.Department, e.OriginalHandlerID, e.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return r.GetByID(ctx, e.ID)
}

func (r *EscalationRepository) GetByID(ctx context.Context, id string) (*models.Escalation, error) {
	query := `SELECT ` + escalationColumns + escalationFrom + ` WHERE e.id = $1`
	return scanEscalationRow(r.db.Conn(ctx).QueryRow(ctx, query, id))
}

// ListByComplaint returns the complaint's timeline, oldest first.
func (r *EscalationRepository) ListByComplaint(ctx context.Context, complaintID string) ([]*models.Escalation, error) {
	query := `SELECT ` + escalationColumns + escalationFrom + `
		WHERE e.complaint_id = $1
		ORDER BY e.created_at ASC, e.id ASC
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query escalations: %w", err)
	}

	return scanEscalationRows(rows)
}

// Latest returns the most recent timeline entry, or ErrNotFound if there is none.
func (r *EscalationRepository) Latest(ctx context.Context, complaintID string) (*models.Escalation, error) {
	query := `SELECT ` + escalationColumns + escalationFrom + `
		WHERE e.complaint_id = $1
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT 1
	`
	return scanEscalationRow(r.db.Conn(ctx).QueryRow(ctx, query, complaintID))
}

// ListInbox returns pending entries addressed to role, narrowed to an org unit when
// college or department is non-empty.
func (r *EscalationRepository) ListInbox(ctx context.Context, role, college, department string) ([]*models.Escalation, error) {
	query := `SELECT ` + escalationColumns + escalationFrom + `
		WHERE e.escalated_to = $1 AND e.status = 'pending'
		  AND ($2 = '' OR e.college = $2)
		  AND ($3 = '' OR e.department = $3)
		ORDER BY e.created_at ASC
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, role, college, department)
	if err != nil {
		return nil, fmt.Errorf("failed to query escalation inbox: %w", err)
	}

	return scanEscalationRows(rows)
}

// Resolve marks a pending entry resolved. Returns ErrInvalidTransition if it was already resolved.
func (r *EscalationRepository) Resolve(ctx context.Context, id, details string, at time.Time) error {
	query := `
		UPDATE escalations SET status = 'resolved', resolution_details = $1, resolved_at = $2
		WHERE id = $3 AND status = 'pending'
	`

	result, err := r.db.Conn(ctx).Exec(ctx, query, details, at, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}

	return nil
}

func (r *EscalationRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM escalations WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count escalations: %w", err)
	}
	return count, nil
}
