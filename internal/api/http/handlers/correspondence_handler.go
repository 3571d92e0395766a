package handlers

import (
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/karyalaya/patra-service/internal/api/dto"
	"github.com/karyalaya/patra-service/internal/domain"
	"github.com/karyalaya/patra-service/internal/service"
	apperrors "github.com/karyalaya/patra-service/pkg/util"
)

const attachmentURLExpiry = 15 * time.Minute

// CorrespondenceHandler manages the patra endpoints.
type CorrespondenceHandler struct {
	correspondence *service.CorrespondenceService
	queries        *service.QueryService
}

// NewCorrespondenceHandler constructs the handler.
func NewCorrespondenceHandler(correspondence *service.CorrespondenceService, queries *service.QueryService) *CorrespondenceHandler {
	return &CorrespondenceHandler{correspondence: correspondence, queries: queries}
}

// Inbox GET /patra/inbox/.
func (h *CorrespondenceHandler) Inbox(c *fiber.Ctx) error {
	return h.list(c, service.ViewInbox)
}

// Sent GET /patra/sent/.
func (h *CorrespondenceHandler) Sent(c *fiber.Ctx) error {
	return h.list(c, service.ViewSent)
}

func (h *CorrespondenceHandler) list(c *fiber.Ctx, view service.View) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := parseListQuery(c)
	items, pagination, err := h.queries.List(c.Context(), principal, view, input)
	if err != nil {
		return err
	}

	summaries := make([]dto.CorrespondenceSummary, 0, len(items))
	for i := range items {
		summaries = append(summaries, correspondenceSummary(&items[i]))
	}
	return c.JSON(dto.ListEnvelope{
		Data:        summaries,
		CurrentPage: pagination.CurrentPage,
		TotalPages:  pagination.TotalPages,
		TotalItems:  pagination.TotalItems,
	})
}

// Get GET /patra/:id/. Fetching the detail as the receiving unit applies the
// read receipt.
func (h *CorrespondenceHandler) Get(c *fiber.Ctx) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	corr, history, err := h.correspondence.Get(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}

	detail, err := h.detailResponse(c, corr, history)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail})
}

// Create POST /patra/. Accepts JSON, or multipart when an attachment is
// present.
func (h *CorrespondenceHandler) Create(c *fiber.Ctx) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateCorrespondenceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("invalid correspondence payload", map[string]any{"fields": err.Error()})
	}

	input := service.CreateInput{
		Subject:              req.Subject,
		Body:                 req.Body,
		Priority:             req.Priority,
		ReceiverOfficeID:     req.ReceiverOffice,
		ReceiverDepartmentID: req.ReceiverDepartment,
	}

	if fileHeader, err := c.FormFile("attachment"); err == nil && fileHeader != nil {
		upload, file, err := openAttachment(fileHeader)
		if err != nil {
			return err
		}
		defer file.Close()
		input.Attachment = upload
	}

	corr, err := h.correspondence.Create(c.Context(), principal, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": correspondenceSummary(corr)})
}

// MarkRead PATCH /patra/:id/mark-read/.
func (h *CorrespondenceHandler) MarkRead(c *fiber.Ctx) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	corr, err := h.correspondence.MarkRead(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": correspondenceSummary(corr)})
}

// Transfer POST /patra/:id/transfer/.
func (h *CorrespondenceHandler) Transfer(c *fiber.Ctx) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("invalid transfer payload", map[string]any{"fields": err.Error()})
	}

	corr, err := h.correspondence.Transfer(c.Context(), principal, c.Params("id"), req.ReceiverOffice, req.ReceiverDepartment, req.Remarks)
	if err != nil {
		return err
	}

	history, err := h.correspondence.History(c.Context(), corr.ID)
	if err != nil {
		return err
	}
	detail, err := h.detailResponse(c, corr, history)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": detail})
}

// Complete PATCH /patra/:id/complete/.
func (h *CorrespondenceHandler) Complete(c *fiber.Ctx) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	corr, err := h.correspondence.Complete(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": correspondenceSummary(corr)})
}

func (h *CorrespondenceHandler) detailResponse(c *fiber.Ctx, corr *domain.Correspondence, history []domain.TransferRecord) (dto.CorrespondenceDetail, error) {
	attachmentURL, err := h.correspondence.AttachmentURL(c.Context(), corr, attachmentURLExpiry)
	if err != nil {
		return dto.CorrespondenceDetail{}, err
	}

	records := make([]dto.TransferRecordResponse, 0, len(history))
	for _, record := range history {
		records = append(records, dto.TransferRecordResponse{
			ID:               record.ID,
			FromOfficeID:     record.FromOfficeID,
			FromDepartmentID: record.FromDepartmentID,
			ToOfficeID:       record.ToOfficeID,
			ToDepartmentID:   record.ToDepartmentID,
			Remarks:          record.Remarks,
			ActorUserID:      record.ActorUserID,
			CreatedAt:        record.CreatedAt,
		})
	}

	return dto.CorrespondenceDetail{
		CorrespondenceSummary: correspondenceSummary(corr),
		Body:                  corr.Body,
		AttachmentName:        corr.AttachmentName,
		AttachmentURL:         attachmentURL,
		TransferHistory:       records,
	}, nil
}

func correspondenceSummary(corr *domain.Correspondence) dto.CorrespondenceSummary {
	return dto.CorrespondenceSummary{
		ID:                   corr.ID,
		Subject:              corr.Subject,
		Priority:             corr.Priority,
		Status:               corr.Status,
		SenderOfficeID:       corr.SenderOfficeID,
		SenderDepartmentID:   corr.SenderDepartmentID,
		ReceiverOfficeID:     corr.ReceiverOfficeID,
		ReceiverDepartmentID: corr.ReceiverDepartmentID,
		HasAttachment:        corr.AttachmentKey != nil,
		CreatedAt:            corr.CreatedAt,
		UpdatedAt:            corr.UpdatedAt,
	}
}

func openAttachment(fileHeader *multipart.FileHeader) (*service.AttachmentUpload, multipart.File, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, apperrors.NewValidationError("unreadable attachment", nil)
	}
	return &service.AttachmentUpload{
		Reader:   file,
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
	}, file, nil
}

func parseListQuery(c *fiber.Ctx) service.ListInput {
	input := service.ListInput{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			input.Statuses = append(input.Statuses, domain.CorrespondenceStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			input.Priorities = append(input.Priorities, domain.CorrespondencePriority(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if sender := c.Query("sender"); sender != "" {
		input.SenderText = &sender
	}
	if department := c.Query("department"); department != "" {
		input.DepartmentText = &department
	}
	if search := c.Query("search"); search != "" {
		input.SearchTerm = &search
	}
	if from := parseTime(c.Query("from")); from != nil {
		input.CreatedFrom = from
	}
	if to := parseTime(c.Query("to")); to != nil {
		input.CreatedTo = to
	}
	input.Page = parseInt(c.Query("page"), 1)
	input.PageSize = parseInt(c.Query("page_size"), 20)
	return input
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
