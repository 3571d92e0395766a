package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/karyalaya/patra-service/internal/api/dto"
	"github.com/karyalaya/patra-service/internal/service"
	apperrors "github.com/karyalaya/patra-service/pkg/util"
)

// NotificationHandler serves per-user notification state.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List GET /notifications/. Supports unread=true and starred=true filters.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.NotificationListInput{
		OnlyUnread:  c.QueryBool("unread"),
		OnlyStarred: c.QueryBool("starred"),
		Page:        parseInt(c.Query("page"), 1),
		PageSize:    parseInt(c.Query("page_size"), 20),
	}

	items, pagination, err := h.notifications.List(c.Context(), principal.ID, input)
	if err != nil {
		return err
	}

	responses := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		responses = append(responses, dto.NotificationResponseFrom(items[i]))
	}
	return c.JSON(dto.ListEnvelope{
		Data:        responses,
		CurrentPage: pagination.CurrentPage,
		TotalPages:  pagination.TotalPages,
		TotalItems:  pagination.TotalItems,
	})
}

// UnreadCount GET /notifications/unread-count/.
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	count, err := h.notifications.UnreadCount(c.Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread_count": count}})
}

// Patch PATCH /notification/:id/. Updates read/starred state on the caller's
// own notification.
func (h *NotificationHandler) Patch(c *fiber.Ctx) error {
	principal, ok := authPrincipal(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.PatchNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return apperrors.NewValidationError("invalid notification patch", map[string]any{"fields": err.Error()})
	}

	notification, err := h.notifications.ApplyPatch(c.Context(), principal.ID, c.Params("id"), req.IsRead, req.IsStarred)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NotificationResponseFrom(*notification)})
}
