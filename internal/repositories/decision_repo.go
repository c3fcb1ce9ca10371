package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/models"
)

// DecisionRepository stores the written verdicts attached to handler actions.
type DecisionRepository struct {
	db *database.DB
}

func NewDecisionRepository(db *database.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

func (r *DecisionRepository) Create(ctx context.Context, d *models.Decision) (*models.Decision, error) {
	d.ID = uuid.New().String()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO decisions (id, complaint_id, decided_by, decision, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Conn(ctx).Exec(ctx, query, d.ID, d.ComplaintID, d.DecidedBy, d.Decision, d.Details, d.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return d, nil
}

func (r *DecisionRepository) ListByComplaint(ctx context.Context, complaintID string) ([]*models.Decision, error) {
	query := `
		SELECT id, complaint_id, decided_by, decision, details, created_at
		FROM decisions WHERE complaint_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, complaintID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]*models.Decision, 0)
	for rows.Next() {
		var d models.Decision
		if err := rows.Scan(&d.ID, &d.ComplaintID, &d.DecidedBy, &d.Decision, &d.Details, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating decision rows: %w", err)
	}

	return decisions, nil
}
