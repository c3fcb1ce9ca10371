package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/models"
)

type NoticeRepository struct {
	db *database.DB
}

func NewNoticeRepository(db *database.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

func scanNoticeRow(row rowScanner) (*models.Notice, error) {
	var n models.Notice
	if err := row.Scan(&n.ID, &n.Title, &n.Body, &n.PostedBy, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &n, nil
}

func (r *NoticeRepository) Create(ctx context.Context, n *models.Notice) (*models.Notice, error) {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt

	query := `
		INSERT INTO notices (id, title, body, posted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, title, body, posted_by, created_at, updated_at
	`
	return scanNoticeRow(r.db.Conn(ctx).QueryRow(ctx, query, n.ID, n.Title, n.Body, n.PostedBy, n.CreatedAt, n.UpdatedAt))
}

func (r *NoticeRepository) List(ctx context.Context, limit, offset int) ([]*models.Notice, error) {
	query := `
		SELECT id, title, body, posted_by, created_at, updated_at
		FROM notices ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query notices: %w", err)
	}
	defer rows.Close()

	notices := make([]*models.Notice, 0)
	for rows.Next() {
		n, err := scanNoticeRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notice: %w", err)
		}
		notices = append(notices, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notice rows: %w", err)
	}

	return notices, nil
}

func (r *NoticeRepository) Update(ctx context.Context, id, title, body string) (*models.Notice, error) {
	query := `
		UPDATE notices SET title = $1, body = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, title, body, posted_by, created_at, updated_at
	`
	return scanNoticeRow(r.db.Conn(ctx).QueryRow(ctx, query, title, body, id))
}

func (r *NoticeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM notices WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
