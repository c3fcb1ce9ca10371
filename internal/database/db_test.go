package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/BradenHooton/grievance/internal/models"
)

func TestMapPostgresError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "nil", err: nil, expected: nil},
		{name: "no rows", err: pgx.ErrNoRows, expected: models.ErrNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", pgx.ErrNoRows), expected: models.ErrNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, expected: models.ErrConflict},
		{name: "foreign key violation", err: &pgconn.PgError{Code: "23503"}, expected: models.ErrHasDependents},
		{name: "not null violation", err: &pgconn.PgError{Code: "23502"}, expected: models.ErrBadRequest},
		{name: "check violation", err: &pgconn.PgError{Code: "23514"}, expected: models.ErrBadRequest},
		{name: "wrapped pg error", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), expected: models.ErrConflict},
		{name: "unmapped pg error", err: &pgconn.PgError{Code: "40001"}, expected: nil},
		{name: "other error passes through", err: other, expected: other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapPostgresError(tt.err)
			if tt.name == "unmapped pg error" {
				var pgErr *pgconn.PgError
				assert.True(t, errors.As(got, &pgErr))
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}
