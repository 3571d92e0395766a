package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/karyalaya/patra-service/internal/domain"
	"github.com/karyalaya/patra-service/internal/events"
	"github.com/karyalaya/patra-service/internal/repository"
	"github.com/karyalaya/patra-service/internal/service"
)

// RoutingWorker reacts to routing events: it delivers freshly created
// correspondence to the receiving unit's queue and fans out notifications to
// the recipients there.
type RoutingWorker struct {
	correspondences repository.CorrespondenceRepository
	users           repository.UserRepository
	notifications   *service.NotificationService
	logger          *zap.Logger
}

// RoutingWorkerDependencies bundles collaborators for the worker.
type RoutingWorkerDependencies struct {
	CorrespondenceRepo repository.CorrespondenceRepository
	UserRepo           repository.UserRepository
	Notifications      *service.NotificationService
	Logger             *zap.Logger
}

// StartRoutingWorker registers the worker's handlers on the dispatcher.
func StartRoutingWorker(dispatcher events.Dispatcher, deps RoutingWorkerDependencies) *RoutingWorker {
	w := &RoutingWorker{
		correspondences: deps.CorrespondenceRepo,
		users:           deps.UserRepo,
		notifications:   deps.Notifications,
		logger:          deps.Logger,
	}
	if dispatcher != nil {
		dispatcher.Subscribe(events.EventCorrespondenceCreated, w.handleCreated)
		dispatcher.Subscribe(events.EventCorrespondenceTransferred, w.handleTransferred)
	}
	return w
}

func (w *RoutingWorker) handleCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CorrespondenceCreatedPayload)
	if !ok {
		return nil
	}

	// Delivery: the letter lands in the receiving unit's queue.
	applied, err := w.correspondences.UpdateStatus(ctx, event.CorrespondenceID, domain.StatusPending, domain.StatusReceived)
	if err != nil {
		w.logger.Error("delivery failed", zap.String("correspondence_id", event.CorrespondenceID), zap.Error(err))
		return err
	}
	if !applied {
		// Someone else already delivered it; fan-out still applies once.
		w.logger.Warn("correspondence already delivered", zap.String("correspondence_id", event.CorrespondenceID))
	}

	w.notifyUnit(ctx, payload.ReceiverOfficeID, payload.ReceiverDepartmentID, event.CorrespondenceID,
		"New correspondence: "+payload.Subject)
	return nil
}

func (w *RoutingWorker) handleTransferred(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CorrespondenceTransferredPayload)
	if !ok {
		return nil
	}
	w.notifyUnit(ctx, payload.ReceiverOfficeID, payload.ReceiverDepartmentID, event.CorrespondenceID,
		"Correspondence transferred to your unit: "+payload.Subject)
	return nil
}

func (w *RoutingWorker) notifyUnit(ctx context.Context, officeID, departmentID, correspondenceID, title string) {
	recipients, err := w.users.ListByUnit(ctx, officeID, departmentID)
	if err != nil {
		w.logger.Error("recipient lookup failed",
			zap.String("office_id", officeID),
			zap.String("department_id", departmentID),
			zap.Error(err))
		return
	}
	w.notifications.FanOut(ctx, recipients, correspondenceID, title)
}
