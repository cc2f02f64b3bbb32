package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourdesk/internal/api/dto"
	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/repository"
	"github.com/spec-kit/tourdesk/internal/service"
)

// StaffHandler exposes staff profile endpoints.
type StaffHandler struct {
	staff *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staff: staffService}
}

// List handles GET /staff.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	var filter repository.StaffFilter
	filter.Limit, filter.Offset = pagination(c)
	members, err := h.staff.List(c.UserContext(), auth.IdentityFromContext(c), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(members))
	for i := range members {
		resp = append(resp, dto.StaffFromDomain(&members[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /staff/:userId.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	member, err := h.staff.Get(c.UserContext(), auth.IdentityFromContext(c), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StaffFromDomain(member)})
}

// Update handles PUT /staff/:userId.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateStaffRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	position, err := dto.Optional("position", req.Position)
	if err != nil {
		return err
	}
	member, err := h.staff.Update(c.UserContext(), auth.IdentityFromContext(c), c.Params("userId"), service.UpdateStaffInput{
		Position: position,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StaffFromDomain(member)})
}

// Delete handles DELETE /staff/:userId.
func (h *StaffHandler) Delete(c *fiber.Ctx) error {
	if err := h.staff.Delete(c.UserContext(), auth.IdentityFromContext(c), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
