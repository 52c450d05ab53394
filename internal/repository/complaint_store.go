package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/civicdesk/grievance-portal/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500
)

// ComplaintFilter narrows listings and dashboard snapshots.
// CreatedFrom and CreatedTo are inclusive; CreatedBefore is exclusive.
type ComplaintFilter struct {
	CustomerID    *string
	Statuses      []domain.ComplaintStatus
	Categories    []domain.ComplaintCategory
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// StatusUpdate describes a single status transition.
// ResolvedAt is written only when non-nil; ClearResolvedAt nulls it instead.
type StatusUpdate struct {
	ID              int64
	Status          domain.ComplaintStatus
	ResolvedAt      *time.Time
	ClearResolvedAt bool
}

// ComplaintStore encapsulates complaint persistence.
type ComplaintStore interface {
	Create(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id int64) (*domain.Complaint, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) error
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	Snapshot(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
}

type complaintStore struct {
	db DBTX
}

// NewComplaintStore instantiates the store.
func NewComplaintStore(db DBTX) ComplaintStore {
	return &complaintStore{db: db}
}

const selectComplaintColumns = `
        SELECT id, customer_id, complaint_text, category, severity, sentiment_score,
               status, created_at, resolved_at
        FROM complaints`

func (s *complaintStore) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (customer_id, complaint_text, category, severity, sentiment_score, status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,NOW())
        RETURNING id, created_at`
	complaint.ResolvedAt = nil
	err := s.db.QueryRow(ctx, query,
		complaint.CustomerID,
		complaint.Text,
		string(complaint.Category),
		complaint.Severity,
		complaint.SentimentScore,
		string(complaint.Status),
	).Scan(&complaint.ID, &complaint.CreatedAt)
	return storageError("create complaint", err)
}

func (s *complaintStore) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	rows, err := s.db.Query(ctx, selectComplaintColumns+` WHERE id=$1`, id)
	if err != nil {
		return nil, storageError("get complaint", err)
	}
	defer rows.Close()

	complaints, err := scanComplaints(rows)
	if err != nil {
		return nil, storageError("get complaint", err)
	}
	if len(complaints) == 0 {
		return nil, ErrNotFound
	}
	return &complaints[0], nil
}

func (s *complaintStore) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	var (
		query string
		args  []any
	)
	switch {
	case update.ResolvedAt != nil:
		// never stamp a resolution earlier than creation, whatever the clocks say
		query = `UPDATE complaints SET status=$1, resolved_at=GREATEST($2::timestamptz, created_at) WHERE id=$3`
		args = []any{string(update.Status), *update.ResolvedAt, update.ID}
	case update.ClearResolvedAt:
		query = `UPDATE complaints SET status=$1, resolved_at=NULL WHERE id=$2`
		args = []any{string(update.Status), update.ID}
	default:
		query = `UPDATE complaints SET status=$1 WHERE id=$2`
		args = []any{string(update.Status), update.ID}
	}

	cmd, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return storageError("update complaint status", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *complaintStore) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	where, args := buildComplaintWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		selectComplaintColumns, where, limit, offset)
	return s.query(ctx, "list complaints", query, args)
}

func (s *complaintStore) Snapshot(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	where, args := buildComplaintWhere(filter)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at ASC, id ASC`, selectComplaintColumns, where)
	return s.query(ctx, "snapshot complaints", query, args)
}

func (s *complaintStore) query(ctx context.Context, op, query string, args []any) ([]domain.Complaint, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError(op, err)
	}
	defer rows.Close()

	complaints, err := scanComplaints(rows)
	if err != nil {
		return nil, storageError(op, err)
	}
	return complaints, nil
}

func buildComplaintWhere(filter ComplaintFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, category := range filter.Categories {
			args = append(args, string(category))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("category IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		clauses = append(clauses, fmt.Sprintf("LOWER(complaint_text) LIKE $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

func scanComplaints(rows pgx.Rows) ([]domain.Complaint, error) {
	var result []domain.Complaint
	for rows.Next() {
		var (
			complaint domain.Complaint
			category  string
			status    string
		)
		if err := rows.Scan(
			&complaint.ID,
			&complaint.CustomerID,
			&complaint.Text,
			&category,
			&complaint.Severity,
			&complaint.SentimentScore,
			&status,
			&complaint.CreatedAt,
			&complaint.ResolvedAt,
		); err != nil {
			return nil, err
		}
		complaint.Category = domain.ComplaintCategory(category)
		complaint.Status = domain.ComplaintStatus(status)
		result = append(result, complaint)
	}
	return result, rows.Err()
}
