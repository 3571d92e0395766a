package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/karyalaya/patra-service/internal/domain"
	"github.com/karyalaya/patra-service/internal/observability"
	"github.com/karyalaya/patra-service/internal/repository"
	apperrors "github.com/karyalaya/patra-service/pkg/util"
)

const officeSnapshotKey = "orgunits:offices:snapshot"

// OfficeLookup is the tagged result of an office listing. When Degraded is
// set the offices come from the last-good snapshot, not the live store, and
// Reason says why. Consumers must branch on the tag instead of treating the
// fallback as fresh data.
type OfficeLookup struct {
	Offices  []domain.Office
	Degraded bool
	Reason   string
}

// OrgUnitService resolves the office/department/sub-unit hierarchy used to
// address correspondence.
type OrgUnitService struct {
	offices     repository.OfficeRepository
	cache       Cache
	logger      *zap.Logger
	metrics     *observability.Metrics
	snapshotTTL time.Duration
}

// NewOrgUnitService constructs the service.
func NewOrgUnitService(offices repository.OfficeRepository, cache Cache, logger *zap.Logger, metrics *observability.Metrics, snapshotTTL time.Duration) *OrgUnitService {
	return &OrgUnitService{
		offices:     offices,
		cache:       cache,
		logger:      logger,
		metrics:     metrics,
		snapshotTTL: snapshotTTL,
	}
}

// ListOffices returns all addressable offices. On a live read the result is
// snapshotted; on transport failure the snapshot is served with the degraded
// tag set. Without a snapshot the failure is surfaced as such, never as
// fabricated data.
func (s *OrgUnitService) ListOffices(ctx context.Context) (OfficeLookup, error) {
	offices, err := s.offices.ListOffices(ctx)
	if err == nil {
		s.snapshotOffices(ctx, offices)
		return OfficeLookup{Offices: offices}, nil
	}

	s.logger.Warn("office lookup failed, trying snapshot", zap.Error(err))

	if s.cache != nil {
		raw, ok, cacheErr := s.cache.Get(ctx, officeSnapshotKey)
		if cacheErr == nil && ok {
			var cached []domain.Office
			if unmarshalErr := json.Unmarshal([]byte(raw), &cached); unmarshalErr == nil {
				if s.metrics != nil {
					s.metrics.DegradedLookupsTotal.Inc()
				}
				return OfficeLookup{
					Offices:  cached,
					Degraded: true,
					Reason:   err.Error(),
				}, nil
			}
		}
	}

	return OfficeLookup{}, apperrors.NewTransportFailure("office lookup failed and no snapshot available", err)
}

// ListDepartments fails with NotFound for an unknown office and returns an
// empty list for an office that legitimately has no departments.
func (s *OrgUnitService) ListDepartments(ctx context.Context, officeID string) ([]domain.Department, error) {
	if _, err := s.offices.GetOffice(ctx, officeID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("office", map[string]any{"office_id": officeID})
		}
		return nil, err
	}
	departments, err := s.offices.ListDepartments(ctx, officeID)
	if err != nil {
		return nil, err
	}
	if departments == nil {
		departments = []domain.Department{}
	}
	return departments, nil
}

// ListSubUnits returns the sub-units (faat) under a department. Branch
// offices never carry sub-units, so for them the result is an empty list
// without touching the sub-unit store; that is expected domain behavior, not
// a failure.
func (s *OrgUnitService) ListSubUnits(ctx context.Context, departmentID string) ([]domain.SubUnit, error) {
	dept, err := s.offices.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, err
	}

	office, err := s.offices.GetOffice(ctx, dept.OfficeID)
	if err != nil {
		return nil, err
	}
	if !office.IsHeadOffice {
		return []domain.SubUnit{}, nil
	}

	units, err := s.offices.ListSubUnits(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	if units == nil {
		units = []domain.SubUnit{}
	}
	return units, nil
}

// ResolveTarget validates a routing target: both ids present, the office
// known, and the department belonging to that office. Violations surface as
// ValidationFailed so they never reach the repository write path.
func (s *OrgUnitService) ResolveTarget(ctx context.Context, officeID, departmentID string) (*domain.Office, *domain.Department, error) {
	if officeID == "" {
		return nil, nil, apperrors.NewValidationError("receiver_office is required", nil)
	}
	if departmentID == "" {
		return nil, nil, apperrors.NewValidationError("receiver_department is required", nil)
	}

	office, err := s.offices.GetOffice(ctx, officeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewValidationError("receiver office does not exist", map[string]any{"office_id": officeID})
		}
		return nil, nil, err
	}

	dept, err := s.offices.GetDepartment(ctx, departmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewValidationError("receiver department does not exist", map[string]any{"department_id": departmentID})
		}
		return nil, nil, err
	}
	if dept.OfficeID != office.ID {
		return nil, nil, apperrors.NewValidationError("receiver department does not belong to receiver office", map[string]any{
			"office_id":     officeID,
			"department_id": departmentID,
		})
	}

	return office, dept, nil
}

func (s *OrgUnitService) snapshotOffices(ctx context.Context, offices []domain.Office) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(offices)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, officeSnapshotKey, string(raw), s.snapshotTTL); err != nil {
		s.logger.Warn("failed to snapshot offices", zap.Error(err))
	}
}
