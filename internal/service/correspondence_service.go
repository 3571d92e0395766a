package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/karyalaya/patra-service/internal/domain"
	"github.com/karyalaya/patra-service/internal/events"
	"github.com/karyalaya/patra-service/internal/observability"
	"github.com/karyalaya/patra-service/internal/repository"
	"github.com/karyalaya/patra-service/internal/storage"
	apperrors "github.com/karyalaya/patra-service/pkg/util"
)

// CorrespondenceService coordinates creation, fetching and the routing
// lifecycle of correspondence.
type CorrespondenceService struct {
	correspondences repository.CorrespondenceRepository
	history         repository.TransferHistoryRepository
	orgUnits        *OrgUnitService
	notifications   *NotificationService
	store           storage.Storage
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	metrics         *observability.Metrics
}

// CorrespondenceDependencies bundles collaborators for the service.
type CorrespondenceDependencies struct {
	CorrespondenceRepo repository.CorrespondenceRepository
	HistoryRepo        repository.TransferHistoryRepository
	OrgUnits           *OrgUnitService
	Notifications      *NotificationService
	Store              storage.Storage
	Dispatcher         events.Dispatcher
	Logger             *zap.Logger
	Metrics            *observability.Metrics
}

// NewCorrespondenceService constructs the service.
func NewCorrespondenceService(deps CorrespondenceDependencies) *CorrespondenceService {
	return &CorrespondenceService{
		correspondences: deps.CorrespondenceRepo,
		history:         deps.HistoryRepo,
		orgUnits:        deps.OrgUnits,
		notifications:   deps.Notifications,
		store:           deps.Store,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
		metrics:         deps.Metrics,
	}
}

// AttachmentUpload describes an optional attachment streamed in at creation.
type AttachmentUpload struct {
	Reader   io.Reader
	FileName string
	MimeType string
	Size     int64
}

// CreateInput describes the creation payload.
type CreateInput struct {
	Subject              string
	Body                 string
	Priority             domain.CorrespondencePriority
	ReceiverOfficeID     string
	ReceiverDepartmentID string
	Attachment           *AttachmentUpload
}

// Create registers a new correspondence addressed from the actor's unit. It
// is stored PENDING; the routing worker delivers it to the receiving queue.
func (s *CorrespondenceService) Create(ctx context.Context, actor *domain.User, input CreateInput) (*domain.Correspondence, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	if _, _, err := s.orgUnits.ResolveTarget(ctx, input.ReceiverOfficeID, input.ReceiverDepartmentID); err != nil {
		return nil, err
	}

	corr := &domain.Correspondence{
		Subject:              subject,
		Body:                 input.Body,
		Priority:             priority,
		SenderOfficeID:       actor.OfficeID,
		SenderDepartmentID:   actor.DepartmentID,
		ReceiverOfficeID:     input.ReceiverOfficeID,
		ReceiverDepartmentID: input.ReceiverDepartmentID,
		Status:               domain.StatusPending,
	}

	if input.Attachment != nil {
		key, err := s.uploadAttachment(ctx, input.Attachment)
		if err != nil {
			return nil, err
		}
		corr.AttachmentKey = &key
		corr.AttachmentName = &input.Attachment.FileName
		corr.AttachmentMime = &input.Attachment.MimeType
	}

	if err := s.correspondences.Create(ctx, corr); err != nil {
		if corr.AttachmentKey != nil {
			if delErr := s.store.Delete(ctx, *corr.AttachmentKey); delErr != nil {
				s.logger.Error("attachment rollback failed", zap.String("key", *corr.AttachmentKey), zap.Error(delErr))
			}
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:             events.EventCorrespondenceCreated,
		CorrespondenceID: corr.ID,
		ActorUserID:      actor.ID,
		Payload: events.CorrespondenceCreatedPayload{
			Subject:              corr.Subject,
			Priority:             corr.Priority,
			ReceiverOfficeID:     corr.ReceiverOfficeID,
			ReceiverDepartmentID: corr.ReceiverDepartmentID,
		},
	})
	return corr, nil
}

// Get returns the full correspondence with its transfer history.
//
// Side effect, kept on purpose: when the caller belongs to the current
// receiving unit and the item is still RECEIVED, fetching the detail counts
// as a read receipt. The status advances to READ and the caller's
// notification for this correspondence is marked read.
func (s *CorrespondenceService) Get(ctx context.Context, principal *domain.User, id string) (*domain.Correspondence, []domain.TransferRecord, error) {
	corr, err := s.getByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if corr.Status == domain.StatusReceived && principal.Unit() == corr.Receiver() {
		applied, err := s.correspondences.UpdateStatus(ctx, corr.ID, domain.StatusReceived, domain.StatusRead)
		if err != nil {
			return nil, nil, err
		}
		if applied {
			corr.Status = domain.StatusRead
		}
		s.notifications.MarkReadByRef(ctx, principal.ID, corr.ID)
	}

	records, err := s.history.ListByCorrespondence(ctx, corr.ID)
	if err != nil {
		return nil, nil, err
	}
	return corr, records, nil
}

// MarkRead applies the explicit read transition. Marking an already-read
// item again is a successful no-op; the status never regresses.
func (s *CorrespondenceService) MarkRead(ctx context.Context, principal *domain.User, id string) (*domain.Correspondence, error) {
	corr, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch domain.MarkReadEffect(corr.Status) {
	case domain.MarkReadApply:
		applied, err := s.correspondences.UpdateStatus(ctx, corr.ID, domain.StatusReceived, domain.StatusRead)
		if err != nil {
			return nil, err
		}
		if applied {
			corr.Status = domain.StatusRead
		} else {
			// Lost the race against another writer; the repository is the
			// point of truth, so reconcile from a fresh read.
			corr, err = s.getByID(ctx, id)
			if err != nil {
				return nil, err
			}
		}
	case domain.MarkReadNoop:
		// already at or past READ
	default:
		return nil, apperrors.NewInvalidTransition("mark-read", string(corr.Status))
	}

	s.notifications.MarkReadByRef(ctx, principal.ID, corr.ID)
	return corr, nil
}

// Transfer routes a correspondence onward to a new receiving unit, appending
// exactly one audit record per accepted call. Duplicate submissions are not
// deduplicated here; each accepted call is its own routing event.
func (s *CorrespondenceService) Transfer(ctx context.Context, actor *domain.User, id, targetOfficeID, targetDepartmentID string, remarks *string) (*domain.Correspondence, error) {
	if remarks != nil && utf8.RuneCountInString(*remarks) > domain.MaxTransferRemarksLen {
		return nil, apperrors.NewValidationError("remarks exceed maximum length", map[string]any{
			"max_length": domain.MaxTransferRemarksLen,
			"length":     utf8.RuneCountInString(*remarks),
		})
	}
	if _, _, err := s.orgUnits.ResolveTarget(ctx, targetOfficeID, targetDepartmentID); err != nil {
		return nil, err
	}

	corr, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransfer(corr.Status) {
		return nil, apperrors.NewInvalidTransition("transfer", string(corr.Status))
	}

	record := &domain.TransferRecord{
		CorrespondenceID: corr.ID,
		FromOfficeID:     corr.ReceiverOfficeID,
		FromDepartmentID: corr.ReceiverDepartmentID,
		ToOfficeID:       targetOfficeID,
		ToDepartmentID:   targetDepartmentID,
		Remarks:          remarks,
		ActorUserID:      actor.ID,
	}

	if err := s.correspondences.Transfer(ctx, corr, record); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The status moved between our read and the transactional write;
			// nothing was applied.
			return nil, apperrors.NewInvalidTransition("transfer", string(corr.Status))
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransfersTotal.Inc()
	}
	s.publishEvent(ctx, events.Event{
		Type:             events.EventCorrespondenceTransferred,
		CorrespondenceID: corr.ID,
		ActorUserID:      actor.ID,
		Payload: events.CorrespondenceTransferredPayload{
			Subject:              corr.Subject,
			FromOfficeID:         record.FromOfficeID,
			FromDepartmentID:     record.FromDepartmentID,
			ReceiverOfficeID:     record.ToOfficeID,
			ReceiverDepartmentID: record.ToDepartmentID,
			Remarks:              remarks,
		},
	})
	return corr, nil
}

// Complete closes out a correspondence. COMPLETED is terminal; no further
// transitions are accepted from it.
func (s *CorrespondenceService) Complete(ctx context.Context, actor *domain.User, id string) (*domain.Correspondence, error) {
	corr, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanComplete(corr.Status) {
		return nil, apperrors.NewInvalidTransition("complete", string(corr.Status))
	}

	applied, err := s.correspondences.UpdateStatus(ctx, corr.ID, corr.Status, domain.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.NewInvalidTransition("complete", string(corr.Status))
	}
	corr.Status = domain.StatusCompleted

	s.publishEvent(ctx, events.Event{
		Type:             events.EventCorrespondenceCompleted,
		CorrespondenceID: corr.ID,
		ActorUserID:      actor.ID,
		Payload:          events.CorrespondenceCompletedPayload{Subject: corr.Subject},
	})
	return corr, nil
}

// History returns the append-only transfer trail, oldest first.
func (s *CorrespondenceService) History(ctx context.Context, correspondenceID string) ([]domain.TransferRecord, error) {
	return s.history.ListByCorrespondence(ctx, correspondenceID)
}

// AttachmentURL returns a presigned download link for the attachment, or ""
// when the correspondence carries none.
func (s *CorrespondenceService) AttachmentURL(ctx context.Context, corr *domain.Correspondence, expiry time.Duration) (string, error) {
	if corr.AttachmentKey == nil || s.store == nil {
		return "", nil
	}
	return s.store.PresignGet(ctx, *corr.AttachmentKey, expiry)
}

func (s *CorrespondenceService) getByID(ctx context.Context, id string) (*domain.Correspondence, error) {
	corr, err := s.correspondences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("correspondence", map[string]any{"id": id})
		}
		return nil, err
	}
	return corr, nil
}

func (s *CorrespondenceService) uploadAttachment(ctx context.Context, upload *AttachmentUpload) (string, error) {
	if s.store == nil {
		return "", apperrors.NewValidationError("attachments are not supported: no object store configured", nil)
	}
	key := "attachments/" + uuid.NewString() + filepath.Ext(upload.FileName)
	_, err := s.store.Put(ctx, key, upload.Reader, storage.PutObjectOptions{
		Size:        upload.Size,
		ContentType: upload.MimeType,
		Metadata:    map[string]string{"original-filename": upload.FileName},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (s *CorrespondenceService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
