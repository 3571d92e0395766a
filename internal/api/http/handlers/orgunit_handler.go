package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/karyalaya/patra-service/internal/api/dto"
	"github.com/karyalaya/patra-service/internal/service"
)

// OrgUnitHandler serves the office/department/sub-unit hierarchy.
type OrgUnitHandler struct {
	orgUnits *service.OrgUnitService
}

// NewOrgUnitHandler constructs the handler.
func NewOrgUnitHandler(orgUnits *service.OrgUnitService) *OrgUnitHandler {
	return &OrgUnitHandler{orgUnits: orgUnits}
}

// ListOffices GET /offices/. A degraded snapshot is flagged as such in the
// envelope so callers can distinguish it from live data.
func (h *OrgUnitHandler) ListOffices(c *fiber.Ctx) error {
	lookup, err := h.orgUnits.ListOffices(c.Context())
	if err != nil {
		return err
	}

	offices := make([]dto.OfficeResponse, 0, len(lookup.Offices))
	for _, office := range lookup.Offices {
		offices = append(offices, dto.OfficeResponseFrom(office))
	}
	return c.JSON(dto.OfficeListEnvelope{
		Data:           offices,
		Degraded:       lookup.Degraded,
		DegradedReason: lookup.Reason,
	})
}

// ListDepartments GET /offices/:id/departments/.
func (h *OrgUnitHandler) ListDepartments(c *fiber.Ctx) error {
	departments, err := h.orgUnits.ListDepartments(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	items := make([]dto.DepartmentResponse, 0, len(departments))
	for _, dept := range departments {
		items = append(items, dto.DepartmentResponse{
			ID:       dept.ID,
			OfficeID: dept.OfficeID,
			Name:     dept.Name,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListSubUnits GET /departments/:id/sub-units/. Branch offices yield an
// empty list, not an error.
func (h *OrgUnitHandler) ListSubUnits(c *fiber.Ctx) error {
	units, err := h.orgUnits.ListSubUnits(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	items := make([]dto.SubUnitResponse, 0, len(units))
	for _, unit := range units {
		items = append(items, dto.SubUnitResponse{
			ID:           unit.ID,
			DepartmentID: unit.DepartmentID,
			Name:         unit.Name,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
