package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/models"
)

type FeedbackRepository struct {
	db *database.DB
}

func NewFeedbackRepository(db *database.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	f.ID = uuid.New().String()
	f.CreatedAt = time.Now()

	query := `INSERT INTO feedback (id, user_id, complaint_id, message, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Conn(ctx).Exec(ctx, query, f.ID, f.UserID, f.ComplaintID, f.Message, f.CreatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return f, nil
}

func (r *FeedbackRepository) List(ctx context.Context, limit, offset int) ([]*models.Feedback, error) {
	query := `
		SELECT f.id, f.user_id, f.complaint_id, f.message, f.created_at, TRIM(u.fname || ' ' || u.lname)
		FROM feedback f JOIN users u ON u.id = f.user_id
		ORDER BY f.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Feedback, 0)
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.ComplaintID, &f.Message, &f.CreatedAt, &f.UserName); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		items = append(items, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback rows: %w", err)
	}

	return items, nil
}

func (r *FeedbackRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM feedback WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
