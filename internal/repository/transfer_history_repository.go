package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karyalaya/patra-service/internal/domain"
)

// TransferHistoryRepository reads the append-only audit trail. Writes happen
// only inside CorrespondenceRepository.Transfer; no update or delete exists.
type TransferHistoryRepository interface {
	ListByCorrespondence(ctx context.Context, correspondenceID string) ([]domain.TransferRecord, error)
}

type transferHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTransferHistoryRepository builds the repository.
func NewTransferHistoryRepository(pool *pgxpool.Pool) TransferHistoryRepository {
	return &transferHistoryRepository{pool: pool}
}

func (r *transferHistoryRepository) ListByCorrespondence(ctx context.Context, correspondenceID string) ([]domain.TransferRecord, error) {
	const query = `
        SELECT id, correspondence_id, from_office_id, from_department_id,
               to_office_id, to_department_id, remarks, actor_user_id, created_at
        FROM transfer_records WHERE correspondence_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, correspondenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TransferRecord
	for rows.Next() {
		var record domain.TransferRecord
		if err := rows.Scan(
			&record.ID,
			&record.CorrespondenceID,
			&record.FromOfficeID,
			&record.FromDepartmentID,
			&record.ToOfficeID,
			&record.ToDepartmentID,
			&record.Remarks,
			&record.ActorUserID,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
