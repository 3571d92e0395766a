package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karyalaya/patra-service/internal/domain"
)

// OfficeRepository resolves the office/department/sub-unit hierarchy.
type OfficeRepository interface {
	ListOffices(ctx context.Context) ([]domain.Office, error)
	GetOffice(ctx context.Context, id string) (*domain.Office, error)
	ListDepartments(ctx context.Context, officeID string) ([]domain.Department, error)
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	ListSubUnits(ctx context.Context, departmentID string) ([]domain.SubUnit, error)
}

type officeRepository struct {
	pool *pgxpool.Pool
}

// NewOfficeRepository builds the repository.
func NewOfficeRepository(pool *pgxpool.Pool) OfficeRepository {
	return &officeRepository{pool: pool}
}

func (r *officeRepository) ListOffices(ctx context.Context) ([]domain.Office, error) {
	const query = `
        SELECT id, name, is_head_office, created_at, updated_at
        FROM offices ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Office
	for rows.Next() {
		var office domain.Office
		if err := rows.Scan(&office.ID, &office.Name, &office.IsHeadOffice, &office.CreatedAt, &office.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, office)
	}
	return result, rows.Err()
}

func (r *officeRepository) GetOffice(ctx context.Context, id string) (*domain.Office, error) {
	const query = `
        SELECT id, name, is_head_office, created_at, updated_at
        FROM offices WHERE id=$1`
	var office domain.Office
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&office.ID,
		&office.Name,
		&office.IsHeadOffice,
		&office.CreatedAt,
		&office.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &office, nil
}

func (r *officeRepository) ListDepartments(ctx context.Context, officeID string) ([]domain.Department, error) {
	const query = `
        SELECT id, office_id, name, created_at, updated_at
        FROM departments WHERE office_id=$1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, officeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Department
	for rows.Next() {
		var dept domain.Department
		if err := rows.Scan(&dept.ID, &dept.OfficeID, &dept.Name, &dept.CreatedAt, &dept.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, dept)
	}
	return result, rows.Err()
}

func (r *officeRepository) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	const query = `
        SELECT id, office_id, name, created_at, updated_at
        FROM departments WHERE id=$1`
	var dept domain.Department
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&dept.ID,
		&dept.OfficeID,
		&dept.Name,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *officeRepository) ListSubUnits(ctx context.Context, departmentID string) ([]domain.SubUnit, error) {
	const query = `
        SELECT id, department_id, name, created_at
        FROM sub_units WHERE department_id=$1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SubUnit
	for rows.Next() {
		var unit domain.SubUnit
		if err := rows.Scan(&unit.ID, &unit.DepartmentID, &unit.Name, &unit.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, unit)
	}
	return result, rows.Err()
}
