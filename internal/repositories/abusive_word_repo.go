package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/models"
)

// AbusiveWordRepository stores the moderation blocklist.
type AbusiveWordRepository struct {
	db *database.DB
}

func NewAbusiveWordRepository(db *database.DB) *AbusiveWordRepository {
	return &AbusiveWordRepository{db: db}
}

func (r *AbusiveWordRepository) List(ctx context.Context) ([]*models.AbusiveWord, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, `SELECT id, word, created_at FROM abusive_words ORDER BY word`)
	if err != nil {
		return nil, fmt.Errorf("failed to query abusive words: %w", err)
	}
	defer rows.Close()

	words := make([]*models.AbusiveWord, 0)
	for rows.Next() {
		var w models.AbusiveWord
		if err := rows.Scan(&w.ID, &w.Word, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan abusive word: %w", err)
		}
		words = append(words, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating abusive word rows: %w", err)
	}

	return words, nil
}

// ListWords returns the lower-cased blocklist for the content filter.
func (r *AbusiveWordRepository) ListWords(ctx context.Context) ([]string, error) {
	rows, err := r.db.Conn(ctx).Query(ctx, `SELECT LOWER(word) FROM abusive_words`)
	if err != nil {
		return nil, fmt.Errorf("failed to query abusive words: %w", err)
	}
	defer rows.Close()

	words := make([]string, 0)
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan abusive word: %w", err)
		}
		words = append(words, w)
	}

	return words, rows.Err()
}

// Create adds a word. A case-insensitive duplicate returns ErrConflict.
func (r *AbusiveWordRepository) Create(ctx context.Context, word string) (*models.AbusiveWord, error) {
	w := &models.AbusiveWord{ID: uuid.New().String(), Word: word, CreatedAt: time.Now()}

	query := `INSERT INTO abusive_words (id, word, created_at) VALUES ($1, $2, $3)`
	if _, err := r.db.Conn(ctx).Exec(ctx, query, w.ID, w.Word, w.CreatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return w, nil
}

func (r *AbusiveWordRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Conn(ctx).Exec(ctx, `DELETE FROM abusive_words WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
