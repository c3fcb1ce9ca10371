package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BradenHooton/grievance/internal/database"
	"github.com/BradenHooton/grievance/internal/models"
)

// handlerAssignmentLock serializes least-loaded handler picks across concurrent submissions.
const handlerAssignmentLock int64 = 0x636f6d706c61696e

const complaintColumns = `c.id, c.user_id, c.handler_id, c.title, c.description, c.category, c.visibility,
	c.status, c.evidence_file, c.created_at, c.updated_at, c.resolution_date,
	TRIM(u.fname || ' ' || u.lname), u.college, u.department`

const complaintFrom = ` FROM complaints c JOIN users u ON u.id = c.user_id`

type ComplaintRepository struct {
	db *database.DB
}

func NewComplaintRepository(db *database.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func scanComplaintRow(row rowScanner) (*models.Complaint, error) {
	var c models.Complaint

	err := row.Scan(
		&c.ID, &c.UserID, &c.HandlerID, &c.Title, &c.Description, &c.Category, &c.Visibility,
		&c.Status, &c.EvidenceFile, &c.CreatedAt, &c.UpdatedAt, &c.ResolutionDate,
		&c.OwnerName, &c.OwnerCollege, &c.OwnerDepartment,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &c, nil
}

func scanComplaintRows(rows pgx.Rows) ([]*models.Complaint, error) {
	defer rows.Close()

	complaints := make([]*models.Complaint, 0)

	for rows.Next() {
		c, err := scanComplaintRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		complaints = append(complaints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating complaint rows: %w", err)
	}

	return complaints, nil
}

// CreateAssigned inserts a pending complaint assigned to the active handler with the fewest
// pending complaints. The pick and the insert run in one transaction under an advisory lock,
// so concurrent submissions see each other's assignments. HandlerID is left nil when no
// active handler exists.
func (r *ComplaintRepository) CreateAssigned(ctx context.Context, complaint *models.Complaint) (*models.Complaint, error) {
	var created *models.Complaint

	err := r.db.WithTransaction(ctx, func(ctx context.Context) error {
		conn := r.db.Conn(ctx)

		if _, err := conn.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, handlerAssignmentLock); err != nil {
			return fmt.Errorf("failed to acquire assignment lock: %w", err)
		}

		handlerID, err := r.leastLoadedHandler(ctx, conn, complaint.UserID)
		if err != nil {
			return err
		}

		complaint.ID = uuid.New().String()
		complaint.HandlerID = handlerID
		complaint.Status = models.ComplaintStatusPending
		if complaint.CreatedAt.IsZero() {
			complaint.CreatedAt = time.Now()
		}
		complaint.UpdatedAt = complaint.CreatedAt

		query := `
			INSERT INTO complaints (id, user_id, handler_id, title, description, category, visibility,
			                        status, evidence_file, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`

		_, err = conn.Exec(ctx, query,
			complaint.ID, complaint.UserID, complaint.HandlerID, complaint.Title, complaint.Description,
			complaint.Category, complaint.Visibility, complaint.Status, complaint.EvidenceFile,
			complaint.CreatedAt, complaint.UpdatedAt,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}

		created, err = scanComplaintRow(conn.QueryRow(ctx, `SELECT `+complaintColumns+complaintFrom+` WHERE c.id = $1`, complaint.ID))
		return err
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// leastLoadedHandler picks the active handler with the fewest pending complaints,
// breaking ties by account age and then id. The submitter is never picked.
func (r *ComplaintRepository) leastLoadedHandler(ctx context.Context, conn database.Querier, submitterID string) (*string, error) {
	query := `
		SELECT u.id
		FROM users u
		LEFT JOIN complaints c ON c.handler_id = u.id AND c.status = 'pending'
		WHERE u.role = 'handler' AND u.status = 'active' AND u.id <> $1
		GROUP BY u.id, u.created_at
		ORDER BY COUNT(c.id) ASC, u.created_at ASC, u.id ASC
		LIMIT 1
	`

	var id string
	err := conn.QueryRow(ctx, query, submitterID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick handler: %w", err)
	}

	return &id, nil
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id string) (*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + complaintFrom + ` WHERE c.id = $1`
	return scanComplaintRow(r.db.Conn(ctx).QueryRow(ctx, query, id))
}

func (r *ComplaintRepository) ListByOwner(ctx context.Context, userID string, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + complaintFrom + `
		WHERE c.user_id = $1 AND ($2 = '' OR c.status = $2) AND ($3 = '' OR c.category = $3)
		ORDER BY c.created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, userID, filter.Status, filter.Category, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query complaints: %w", err)
	}

	return scanComplaintRows(rows)
}

// ListByHandler returns the handler's queue; an empty handlerID lists every complaint.
func (r *ComplaintRepository) ListByHandler(ctx context.Context, handlerID string, filter models.ComplaintFilter) ([]*models.Complaint, error) {
	query := `SELECT ` + complaintColumns + complaintFrom + `
		WHERE ($1 = '' OR c.handler_id::text = $1) AND ($2 = '' OR c.status = $2) AND ($3 = '' OR c.category = $3)
		ORDER BY c.created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Conn(ctx).Query(ctx, query, handlerID, filter.Status, filter.Category, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query handler complaints: %w", err)
	}

	return scanComplaintRows(rows)
}

// CountSince counts complaints the user created strictly after since.
func (r *ComplaintRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM complaints WHERE user_id = $1 AND created_at > $2`

	var count int
	if err := r.db.Conn(ctx).QueryRow(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count complaints: %w", err)
	}

	return count, nil
}

// UpdatePending applies an owner edit only while the complaint is still pending.
// A stale edit (wrong owner or status moved on) returns ErrNotFound.
func (r *ComplaintRepository) UpdatePending(ctx context.Context, id, ownerID string, update models.ComplaintUpdate) (*models.Complaint, error) {
	query := `
		UPDATE complaints
		SET title = $1, description = $2, visibility = $3, evidence_file = COALESCE($4, evidence_file), updated_at = NOW()
		WHERE id = $5 AND user_id = $6 AND status = 'pending'
	`

	result, err := r.db.Conn(ctx).Exec(ctx, query, update.Title, update.Description, update.Visibility, update.EvidenceFile, id, ownerID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// TransitionStatus moves a complaint to status `to` if its current status is one of `from`.
// resolutionDate, when non-nil, is stamped on the row. Returns ErrInvalidTransition when the
// guard does not match.
func (r *ComplaintRepository) TransitionStatus(ctx context.Context, id string, from []string, to string, resolutionDate *time.Time) error {
	query := `
		UPDATE complaints
		SET status = $1, resolution_date = COALESCE($2, resolution_date), updated_at = NOW()
		WHERE id = $3 AND status = ANY($4)
	`

	result, err := r.db.Conn(ctx).Exec(ctx, query, to, resolutionDate, id, from)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrInvalidTransition
	}

	return nil
}

// LockForUpdate row-locks a complaint until the surrounding transaction ends. It must be
// called with a context from WithTransaction.
func (r *ComplaintRepository) LockForUpdate(ctx context.Context, id string) error {
	var locked string
	err := r.db.Conn(ctx).QueryRow(ctx, `SELECT id FROM complaints WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	return database.MapPostgresError(err)
}

// CountByStatus returns complaint counts keyed by status.
func (r *ComplaintRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return countGrouped(ctx, r.db.Conn(ctx), `SELECT status, COUNT(*) FROM complaints GROUP BY status`)
}
