package service

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/karyalaya/patra-service/internal/domain"
	"github.com/karyalaya/patra-service/internal/repository"
	apperrors "github.com/karyalaya/patra-service/pkg/util"
)

// View selects which side of the routing a listing shows.
type View string

const (
	ViewInbox View = "inbox"
	ViewSent  View = "sent"
)

// ErrStaleResponse reports that a listing was superseded by a newer request
// for the same view while its repository round-trip was in flight. The stale
// result is discarded; only the latest-issued request may deliver data.
var ErrStaleResponse = apperrors.NewDomainError(
	"STALE_RESPONSE", "listing superseded by a newer request", http.StatusConflict, nil)

// ListInput captures inbox/sent filters. All filters intersect.
type ListInput struct {
	Statuses       []domain.CorrespondenceStatus
	Priorities     []domain.CorrespondencePriority
	SenderText     *string
	DepartmentText *string
	SearchTerm     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Page           int
	PageSize       int
}

// QueryService produces filtered, sorted, paginated correspondence views.
// Each (caller, view) pair carries a monotonically increasing request token;
// a response whose token is no longer the latest issued is discarded rather
// than rendered over fresher data.
type QueryService struct {
	correspondences repository.CorrespondenceRepository
	logger          *zap.Logger

	mu     sync.Mutex
	latest map[string]uint64
}

// NewQueryService constructs the service.
func NewQueryService(correspondences repository.CorrespondenceRepository, logger *zap.Logger) *QueryService {
	return &QueryService{
		correspondences: correspondences,
		logger:          logger,
		latest:          make(map[string]uint64),
	}
}

// List returns one page of the caller's inbox or sent view, newest first
// (created_at DESC, id DESC tie-break). Pagination totals are computed over
// the same filtered clauses as the page itself.
func (s *QueryService) List(ctx context.Context, principal *domain.User, view View, input ListInput) ([]domain.Correspondence, Pagination, error) {
	token := s.issueToken(principal.ID, view)

	page := input.Page
	if page <= 0 {
		page = 1
	}
	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := repository.CorrespondenceFilter{
		Statuses:       input.Statuses,
		Priorities:     input.Priorities,
		SenderText:     input.SenderText,
		DepartmentText: input.DepartmentText,
		SearchTerm:     input.SearchTerm,
		CreatedFrom:    input.CreatedFrom,
		CreatedTo:      input.CreatedTo,
		Limit:          pageSize,
		Offset:         (page - 1) * pageSize,
	}
	switch view {
	case ViewSent:
		filter.SenderOfficeID = &principal.OfficeID
		filter.SenderDepartmentID = &principal.DepartmentID
	default:
		filter.ReceiverOfficeID = &principal.OfficeID
		filter.ReceiverDepartmentID = &principal.DepartmentID
	}

	items, err := s.correspondences.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}
	total, err := s.correspondences.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, Pagination{}, err
	}

	if !s.isLatest(principal.ID, view, token) {
		s.logger.Debug("discarding stale listing response",
			zap.String("user", principal.ID),
			zap.String("view", string(view)),
			zap.Uint64("token", token))
		return nil, Pagination{}, ErrStaleResponse
	}

	if items == nil {
		items = []domain.Correspondence{}
	}
	return items, paginate(page, pageSize, total), nil
}

func (s *QueryService) issueToken(userID string, view View) uint64 {
	key := viewKey(userID, view)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[key]++
	return s.latest[key]
}

func (s *QueryService) isLatest(userID string, view View, token uint64) bool {
	key := viewKey(userID, view)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[key] == token
}

func viewKey(userID string, view View) string {
	return userID + ":" + string(view)
}
