package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karyalaya/patra-service/internal/domain"
	apperrors "github.com/karyalaya/patra-service/pkg/util"
)

type correspondenceFixture struct {
	svc       *CorrespondenceService
	corrRepo  *fakeCorrespondenceRepo
	notifRepo *fakeNotificationRepo
	notifs    *NotificationService
	sender    *domain.User
	receiver  *domain.User
}

func newCorrespondenceFixture() *correspondenceFixture {
	officeRepo := newFakeOfficeRepo()
	officeRepo.addOffice("office-head", "Head Office", true)
	officeRepo.addOffice("office-branch", "Pokhara Branch", false)
	officeRepo.addDepartment("dept-admin", "office-head", "Administration")
	officeRepo.addDepartment("dept-finance", "office-head", "Finance")
	officeRepo.addDepartment("dept-branch", "office-branch", "General")

	corrRepo := newFakeCorrespondenceRepo()
	notifRepo := newFakeNotificationRepo()
	logger := zap.NewNop()

	orgUnits := NewOrgUnitService(officeRepo, newMemCache(), logger, nil, time.Hour)
	notifs := NewNotificationService(notifRepo, newMemCache(), logger, nil, time.Minute)

	svc := NewCorrespondenceService(CorrespondenceDependencies{
		CorrespondenceRepo: corrRepo,
		HistoryRepo:        &fakeTransferHistoryRepo{corrRepo: corrRepo},
		OrgUnits:           orgUnits,
		Notifications:      notifs,
		Logger:             logger,
	})

	return &correspondenceFixture{
		svc:       svc,
		corrRepo:  corrRepo,
		notifRepo: notifRepo,
		notifs:    notifs,
		sender: &domain.User{
			ID: "user-sender", OfficeID: "office-branch", DepartmentID: "dept-branch",
		},
		receiver: &domain.User{
			ID: "user-receiver", OfficeID: "office-head", DepartmentID: "dept-admin",
		},
	}
}

func (f *correspondenceFixture) createDelivered(t *testing.T) *domain.Correspondence {
	t.Helper()
	corr, err := f.svc.Create(context.Background(), f.sender, CreateInput{
		Subject:              "Budget approval request",
		Body:                 "Please review the attached figures.",
		ReceiverOfficeID:     "office-head",
		ReceiverDepartmentID: "dept-admin",
	})
	require.NoError(t, err)

	applied, err := f.corrRepo.UpdateStatus(context.Background(), corr.ID, domain.StatusPending, domain.StatusReceived)
	require.NoError(t, err)
	require.True(t, applied)
	corr.Status = domain.StatusReceived
	return corr
}

func TestCreateValidation(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.sender, CreateInput{
		Subject:              "   ",
		ReceiverOfficeID:     "office-head",
		ReceiverDepartmentID: "dept-admin",
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	_, err = f.svc.Create(ctx, f.sender, CreateInput{
		Subject:              "Hello",
		Priority:             domain.CorrespondencePriority("CRITICAL"),
		ReceiverOfficeID:     "office-head",
		ReceiverDepartmentID: "dept-admin",
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	// Unresolvable target is a validation failure, not a missing resource.
	_, err = f.svc.Create(ctx, f.sender, CreateInput{
		Subject:              "Hello",
		ReceiverOfficeID:     "office-head",
		ReceiverDepartmentID: "dept-missing",
	})
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestCreateDefaults(t *testing.T) {
	f := newCorrespondenceFixture()

	corr, err := f.svc.Create(context.Background(), f.sender, CreateInput{
		Subject:              "Monthly report",
		ReceiverOfficeID:     "office-head",
		ReceiverDepartmentID: "dept-admin",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityNormal, corr.Priority)
	assert.Equal(t, domain.StatusPending, corr.Status)
	assert.Equal(t, "office-branch", corr.SenderOfficeID)
	assert.Equal(t, "dept-branch", corr.SenderDepartmentID)
}

func TestGetAppliesReadReceiptForReceivingUnit(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()
	corr := f.createDelivered(t)

	notification := &domain.Notification{
		RecipientUserID: f.receiver.ID,
		RefType:         domain.RefTypeCorrespondence,
		RefID:           corr.ID,
		Title:           "New correspondence",
	}
	require.NoError(t, f.notifRepo.Create(ctx, notification))

	got, _, err := f.svc.Get(ctx, f.receiver, corr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, got.Status)

	stored, err := f.notifRepo.GetByID(ctx, notification.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead, "fetching the detail marks the matching notification read")
}

func TestGetDoesNotAdvanceForOtherUnits(t *testing.T) {
	f := newCorrespondenceFixture()
	corr := f.createDelivered(t)

	got, _, err := f.svc.Get(context.Background(), f.sender, corr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReceived, got.Status)
}

func TestMarkReadIdempotent(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()
	corr := f.createDelivered(t)

	first, err := f.svc.MarkRead(ctx, f.receiver, corr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, first.Status)

	second, err := f.svc.MarkRead(ctx, f.receiver, corr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, second.Status)
}

func TestMarkReadBeforeDelivery(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()

	corr, err := f.svc.Create(ctx, f.sender, CreateInput{
		Subject:              "Pending letter",
		ReceiverOfficeID:     "office-head",
		ReceiverDepartmentID: "dept-admin",
	})
	require.NoError(t, err)

	_, err = f.svc.MarkRead(ctx, f.receiver, corr.ID)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestTransferAppendsExactlyOneRecord(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()
	corr := f.createDelivered(t)

	remarks := "forwarding for approval"
	got, err := f.svc.Transfer(ctx, f.receiver, corr.ID, "office-head", "dept-finance", &remarks)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusForwarded, got.Status)
	assert.Equal(t, "office-head", got.ReceiverOfficeID)
	assert.Equal(t, "dept-finance", got.ReceiverDepartmentID)

	history, err := f.svc.History(ctx, corr.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "office-head", history[0].FromOfficeID)
	assert.Equal(t, "dept-admin", history[0].FromDepartmentID)
	assert.Equal(t, "dept-finance", history[0].ToDepartmentID)
	assert.Equal(t, f.receiver.ID, history[0].ActorUserID)
	require.NotNil(t, history[0].Remarks)
	assert.Equal(t, remarks, *history[0].Remarks)
}

func TestTransferRejectsOversizedRemarks(t *testing.T) {
	f := newCorrespondenceFixture()
	corr := f.createDelivered(t)

	remarks := strings.Repeat("x", domain.MaxTransferRemarksLen+1)
	_, err := f.svc.Transfer(context.Background(), f.receiver, corr.ID, "office-head", "dept-finance", &remarks)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	history, histErr := f.svc.History(context.Background(), corr.ID)
	require.NoError(t, histErr)
	assert.Empty(t, history, "a rejected transfer leaves no audit record")
}

func TestTransferRemarksLimitCountsRunesNotBytes(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()
	corr := f.createDelivered(t)

	// Devanagari characters are three bytes each; a remark at the character
	// cap must still be accepted.
	remarks := strings.Repeat("क", domain.MaxTransferRemarksLen)
	_, err := f.svc.Transfer(ctx, f.receiver, corr.ID, "office-head", "dept-finance", &remarks)
	require.NoError(t, err)

	over := strings.Repeat("क", domain.MaxTransferRemarksLen+1)
	_, err = f.svc.Transfer(ctx, f.receiver, corr.ID, "office-head", "dept-admin", &over)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	history, err := f.svc.History(ctx, corr.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "the rejected remark leaves no audit record")
}

func TestTransferUnresolvableTargetLeavesStateUnchanged(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()
	corr := f.createDelivered(t)

	_, err := f.svc.Transfer(ctx, f.receiver, corr.ID, "office-head", "dept-missing", nil)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	stored, err := f.corrRepo.GetByID(ctx, corr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReceived, stored.Status)
	assert.Equal(t, "dept-admin", stored.ReceiverDepartmentID)
}

func TestTransferFromTerminalStatus(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()
	corr := f.createDelivered(t)

	_, err := f.svc.Complete(ctx, f.receiver, corr.ID)
	require.NoError(t, err)

	_, err = f.svc.Transfer(ctx, f.receiver, corr.ID, "office-head", "dept-finance", nil)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}

func TestTransferChainKeepsFullTrail(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()
	corr := f.createDelivered(t)

	_, err := f.svc.Transfer(ctx, f.receiver, corr.ID, "office-head", "dept-finance", nil)
	require.NoError(t, err)
	// A forwarded item may be routed onward again.
	_, err = f.svc.Transfer(ctx, f.receiver, corr.ID, "office-branch", "dept-branch", nil)
	require.NoError(t, err)

	history, err := f.svc.History(ctx, corr.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "dept-admin", history[0].FromDepartmentID)
	assert.Equal(t, "dept-finance", history[0].ToDepartmentID)
	assert.Equal(t, "dept-finance", history[1].FromDepartmentID)
	assert.Equal(t, "dept-branch", history[1].ToDepartmentID)
}

func TestCompleteIsTerminal(t *testing.T) {
	f := newCorrespondenceFixture()
	ctx := context.Background()
	corr := f.createDelivered(t)

	got, err := f.svc.Complete(ctx, f.receiver, corr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	_, err = f.svc.Complete(ctx, f.receiver, corr.ID)
	assert.True(t, apperrors.IsCode(err, "INVALID_TRANSITION"))
}
