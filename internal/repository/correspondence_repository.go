package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karyalaya/patra-service/internal/domain"
)

// CorrespondenceFilter captures listing parameters. All optional fields are
// intersected (logical AND).
type CorrespondenceFilter struct {
	ReceiverOfficeID     *string
	ReceiverDepartmentID *string
	SenderOfficeID       *string
	SenderDepartmentID   *string
	Statuses             []domain.CorrespondenceStatus
	Priorities           []domain.CorrespondencePriority
	SenderText           *string
	DepartmentText       *string
	SearchTerm           *string
	CreatedFrom          *time.Time
	CreatedTo            *time.Time
	Limit                int
	Offset               int
}

// CorrespondenceRepository encapsulates correspondence persistence.
type CorrespondenceRepository interface {
	Create(ctx context.Context, corr *domain.Correspondence) error
	GetByID(ctx context.Context, id string) (*domain.Correspondence, error)
	// UpdateStatus applies a compare-and-set status change. It returns false
	// when the row no longer carries the expected status, so concurrent
	// writers are serialized at the database.
	UpdateStatus(ctx context.Context, id string, from, to domain.CorrespondenceStatus) (bool, error)
	// Transfer atomically appends the audit record, replaces the receiver and
	// advances the status to FORWARDED in a single transaction.
	Transfer(ctx context.Context, corr *domain.Correspondence, record *domain.TransferRecord) error
	ListWithFilter(ctx context.Context, filter CorrespondenceFilter) ([]domain.Correspondence, error)
	CountWithFilter(ctx context.Context, filter CorrespondenceFilter) (int, error)
}

type correspondenceRepository struct {
	pool *pgxpool.Pool
}

// NewCorrespondenceRepository instantiates the repository.
func NewCorrespondenceRepository(pool *pgxpool.Pool) CorrespondenceRepository {
	return &correspondenceRepository{pool: pool}
}

const correspondenceColumns = `c.id, c.subject, c.body, c.priority,
       c.attachment_key, c.attachment_name, c.attachment_mime,
       c.sender_office_id, c.sender_department_id,
       c.receiver_office_id, c.receiver_department_id,
       c.status, c.created_at, c.updated_at`

func (r *correspondenceRepository) Create(ctx context.Context, corr *domain.Correspondence) error {
	const query = `
        INSERT INTO correspondences (subject, body, priority, attachment_key, attachment_name, attachment_mime,
            sender_office_id, sender_department_id, receiver_office_id, receiver_department_id, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		corr.Subject,
		corr.Body,
		corr.Priority,
		corr.AttachmentKey,
		corr.AttachmentName,
		corr.AttachmentMime,
		corr.SenderOfficeID,
		corr.SenderDepartmentID,
		corr.ReceiverOfficeID,
		corr.ReceiverDepartmentID,
		corr.Status,
	).Scan(&corr.ID, &corr.CreatedAt, &corr.UpdatedAt)
}

func (r *correspondenceRepository) GetByID(ctx context.Context, id string) (*domain.Correspondence, error) {
	query := fmt.Sprintf(`SELECT %s FROM correspondences c WHERE c.id=$1`, correspondenceColumns)
	var corr domain.Correspondence
	if err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(&corr)...); err != nil {
		return nil, err
	}
	return &corr, nil
}

func (r *correspondenceRepository) UpdateStatus(ctx context.Context, id string, from, to domain.CorrespondenceStatus) (bool, error) {
	const query = `
        UPDATE correspondences SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *correspondenceRepository) Transfer(ctx context.Context, corr *domain.Correspondence, record *domain.TransferRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertRecord = `
        INSERT INTO transfer_records (correspondence_id, from_office_id, from_department_id,
            to_office_id, to_department_id, remarks, actor_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insertRecord,
		record.CorrespondenceID,
		record.FromOfficeID,
		record.FromDepartmentID,
		record.ToOfficeID,
		record.ToDepartmentID,
		record.Remarks,
		record.ActorUserID,
	).Scan(&record.ID, &record.CreatedAt); err != nil {
		return err
	}

	const updateCorr = `
        UPDATE correspondences SET receiver_office_id=$1, receiver_department_id=$2,
            status=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5
        RETURNING updated_at`
	if err := tx.QueryRow(ctx, updateCorr,
		record.ToOfficeID,
		record.ToDepartmentID,
		domain.StatusForwarded,
		corr.ID,
		corr.Status,
	).Scan(&corr.UpdatedAt); err != nil {
		// pgx.ErrNoRows here means the status moved underneath us; the whole
		// transaction rolls back so no half-applied state is observable.
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	corr.ReceiverOfficeID = record.ToOfficeID
	corr.ReceiverDepartmentID = record.ToDepartmentID
	corr.Status = domain.StatusForwarded
	return nil
}

func (r *correspondenceRepository) ListWithFilter(ctx context.Context, filter CorrespondenceFilter) ([]domain.Correspondence, error) {
	clauses, args := buildCorrespondenceClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM correspondences c
        JOIN offices so ON so.id = c.sender_office_id
        JOIN departments sd ON sd.id = c.sender_department_id
        JOIN departments rd ON rd.id = c.receiver_department_id
        WHERE %s
        ORDER BY c.created_at DESC, c.id DESC
        LIMIT %d OFFSET %d`,
		correspondenceColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Correspondence
	for rows.Next() {
		var corr domain.Correspondence
		if err := rows.Scan(scanTargets(&corr)...); err != nil {
			return nil, err
		}
		result = append(result, corr)
	}
	return result, rows.Err()
}

func (r *correspondenceRepository) CountWithFilter(ctx context.Context, filter CorrespondenceFilter) (int, error) {
	clauses, args := buildCorrespondenceClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM correspondences c
        JOIN offices so ON so.id = c.sender_office_id
        JOIN departments sd ON sd.id = c.sender_department_id
        JOIN departments rd ON rd.id = c.receiver_department_id
        WHERE %s`, strings.Join(clauses, " AND "))

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func buildCorrespondenceClauses(filter CorrespondenceFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReceiverOfficeID != nil {
		args = append(args, *filter.ReceiverOfficeID)
		clauses = append(clauses, fmt.Sprintf("c.receiver_office_id=$%d", len(args)))
	}
	if filter.ReceiverDepartmentID != nil {
		args = append(args, *filter.ReceiverDepartmentID)
		clauses = append(clauses, fmt.Sprintf("c.receiver_department_id=$%d", len(args)))
	}
	if filter.SenderOfficeID != nil {
		args = append(args, *filter.SenderOfficeID)
		clauses = append(clauses, fmt.Sprintf("c.sender_office_id=$%d", len(args)))
	}
	if filter.SenderDepartmentID != nil {
		args = append(args, *filter.SenderDepartmentID)
		clauses = append(clauses, fmt.Sprintf("c.sender_department_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("c.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("c.created_at <= $%d", len(args)))
	}
	if term := likeTerm(filter.SenderText); term != "" {
		args = append(args, term)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(so.name) LIKE %s OR LOWER(c.subject) LIKE %s)", placeholder, placeholder))
	}
	if term := likeTerm(filter.DepartmentText); term != "" {
		args = append(args, term)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(sd.name) LIKE %s OR LOWER(rd.name) LIKE %s)", placeholder, placeholder))
	}
	if term := likeTerm(filter.SearchTerm); term != "" {
		args = append(args, term)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(c.subject) LIKE %s OR LOWER(c.body) LIKE %s)", placeholder, placeholder))
	}

	return clauses, args
}

func likeTerm(val *string) string {
	if val == nil || strings.TrimSpace(*val) == "" {
		return ""
	}
	return "%" + strings.ToLower(strings.TrimSpace(*val)) + "%"
}

func scanTargets(corr *domain.Correspondence) []any {
	return []any{
		&corr.ID,
		&corr.Subject,
		&corr.Body,
		&corr.Priority,
		&corr.AttachmentKey,
		&corr.AttachmentName,
		&corr.AttachmentMime,
		&corr.SenderOfficeID,
		&corr.SenderDepartmentID,
		&corr.ReceiverOfficeID,
		&corr.ReceiverDepartmentID,
		&corr.Status,
		&corr.CreatedAt,
		&corr.UpdatedAt,
	}
}
