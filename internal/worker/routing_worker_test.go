package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karyalaya/patra-service/internal/domain"
	"github.com/karyalaya/patra-service/internal/events"
	"github.com/karyalaya/patra-service/internal/repository"
	"github.com/karyalaya/patra-service/internal/service"
)

type stubCorrespondenceRepo struct {
	mu       sync.Mutex
	statuses map[string]domain.CorrespondenceStatus
}

func (r *stubCorrespondenceRepo) Create(context.Context, *domain.Correspondence) error {
	return nil
}

func (r *stubCorrespondenceRepo) GetByID(_ context.Context, id string) (*domain.Correspondence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status, ok := r.statuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.Correspondence{ID: id, Status: status}, nil
}

func (r *stubCorrespondenceRepo) UpdateStatus(_ context.Context, id string, from, to domain.CorrespondenceStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statuses[id] != from {
		return false, nil
	}
	r.statuses[id] = to
	return true, nil
}

func (r *stubCorrespondenceRepo) Transfer(context.Context, *domain.Correspondence, *domain.TransferRecord) error {
	return nil
}

func (r *stubCorrespondenceRepo) ListWithFilter(context.Context, repository.CorrespondenceFilter) ([]domain.Correspondence, error) {
	return nil, nil
}

func (r *stubCorrespondenceRepo) CountWithFilter(context.Context, repository.CorrespondenceFilter) (int, error) {
	return 0, nil
}

type stubUserRepo struct {
	users []domain.User
}

func (r *stubUserRepo) GetByID(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubUserRepo) ListByUnit(_ context.Context, officeID, departmentID string) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.OfficeID == officeID && user.DepartmentID == departmentID {
			result = append(result, user)
		}
	}
	return result, nil
}

type stubNotificationRepo struct {
	mu      sync.Mutex
	seq     int
	created []domain.Notification
}

func (r *stubNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	notification.ID = fmt.Sprintf("notif-%d", r.seq)
	r.created = append(r.created, *notification)
	return nil
}

func (r *stubNotificationRepo) GetByID(context.Context, string) (*domain.Notification, error) {
	return nil, pgx.ErrNoRows
}

func (r *stubNotificationRepo) ListByRecipient(context.Context, string, repository.NotificationFilter) ([]domain.Notification, error) {
	return nil, nil
}

func (r *stubNotificationRepo) CountByRecipient(context.Context, string, repository.NotificationFilter) (int, error) {
	return 0, nil
}

func (r *stubNotificationRepo) MarkRead(context.Context, string) error { return nil }

func (r *stubNotificationRepo) ToggleStarred(context.Context, string) (bool, error) {
	return false, nil
}

func (r *stubNotificationRepo) CountUnread(context.Context, string) (int, error) { return 0, nil }

func (r *stubNotificationRepo) MarkReadByRef(context.Context, string, domain.NotificationRefType, string) error {
	return nil
}

func newWorkerFixture() (events.Dispatcher, *stubCorrespondenceRepo, *stubNotificationRepo) {
	corrRepo := &stubCorrespondenceRepo{statuses: map[string]domain.CorrespondenceStatus{}}
	notifRepo := &stubNotificationRepo{}
	userRepo := &stubUserRepo{users: []domain.User{
		{ID: "user-1", OfficeID: "office-head", DepartmentID: "dept-admin"},
		{ID: "user-2", OfficeID: "office-head", DepartmentID: "dept-admin"},
		{ID: "user-3", OfficeID: "office-branch", DepartmentID: "dept-branch"},
	}}
	logger := zap.NewNop()

	dispatcher := events.NewInMemoryDispatcher()
	StartRoutingWorker(dispatcher, RoutingWorkerDependencies{
		CorrespondenceRepo: corrRepo,
		UserRepo:           userRepo,
		Notifications:      service.NewNotificationService(notifRepo, nil, logger, nil, time.Minute),
		Logger:             logger,
	})
	return dispatcher, corrRepo, notifRepo
}

func TestCreatedEventDeliversAndFansOut(t *testing.T) {
	dispatcher, corrRepo, notifRepo := newWorkerFixture()
	corrRepo.statuses["corr-1"] = domain.StatusPending

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:               "evt-1",
		Type:             events.EventCorrespondenceCreated,
		CorrespondenceID: "corr-1",
		Payload: events.CorrespondenceCreatedPayload{
			Subject:              "Budget approval request",
			ReceiverOfficeID:     "office-head",
			ReceiverDepartmentID: "dept-admin",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusReceived, corrRepo.statuses["corr-1"])
	require.Len(t, notifRepo.created, 2, "only users of the receiving unit are notified")
	for _, notification := range notifRepo.created {
		assert.Equal(t, "corr-1", notification.RefID)
		assert.Equal(t, "New correspondence: Budget approval request", notification.Title)
	}
}

func TestTransferredEventNotifiesNewUnit(t *testing.T) {
	dispatcher, corrRepo, notifRepo := newWorkerFixture()
	corrRepo.statuses["corr-2"] = domain.StatusForwarded

	err := dispatcher.Publish(context.Background(), events.Event{
		ID:               "evt-2",
		Type:             events.EventCorrespondenceTransferred,
		CorrespondenceID: "corr-2",
		Payload: events.CorrespondenceTransferredPayload{
			Subject:              "Budget approval request",
			FromOfficeID:         "office-head",
			FromDepartmentID:     "dept-admin",
			ReceiverOfficeID:     "office-branch",
			ReceiverDepartmentID: "dept-branch",
		},
	})
	require.NoError(t, err)

	// The transferred item keeps FORWARDED; delivery does not regress it.
	assert.Equal(t, domain.StatusForwarded, corrRepo.statuses["corr-2"])
	require.Len(t, notifRepo.created, 1)
	assert.Equal(t, "user-3", notifRepo.created[0].RecipientUserID)
	assert.Equal(t, "Correspondence transferred to your unit: Budget approval request", notifRepo.created[0].Title)
}
