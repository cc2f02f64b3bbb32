package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourdesk/internal/api/dto"
	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/repository"
	"github.com/spec-kit/tourdesk/internal/service"
)

// CustomersHandler exposes customer profile endpoints for staff.
type CustomersHandler struct {
	customers *service.CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(customerService *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{customers: customerService}
}

// List handles GET /customers.
func (h *CustomersHandler) List(c *fiber.Ctx) error {
	var filter repository.CustomerFilter
	if gender := c.Query("gender"); gender != "" {
		g := domain.Gender(gender)
		filter.Gender = &g
	}
	filter.Limit, filter.Offset = pagination(c)

	customers, err := h.customers.List(c.UserContext(), auth.IdentityFromContext(c), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.CustomerResponse, 0, len(customers))
	for i := range customers {
		resp = append(resp, dto.CustomerFromDomain(&customers[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /customers/:userId.
func (h *CustomersHandler) Get(c *fiber.Ctx) error {
	customer, err := h.customers.Get(c.UserContext(), auth.IdentityFromContext(c), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CustomerFromDomain(customer)})
}

// Update handles PUT /customers/:userId.
func (h *CustomersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateCustomerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	var in service.UpdateCustomerInput
	var err error
	if in.Phone, err = dto.Optional("phone", req.Phone); err != nil {
		return err
	}
	if in.Gender, err = dto.Optional("gender", req.Gender); err != nil {
		return err
	}
	if in.Age, err = dto.Optional("age", req.Age); err != nil {
		return err
	}
	if in.Address, err = dto.Optional("address", req.Address); err != nil {
		return err
	}

	customer, err := h.customers.Update(c.UserContext(), auth.IdentityFromContext(c), c.Params("userId"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CustomerFromDomain(customer)})
}

// Delete handles DELETE /customers/:userId.
func (h *CustomersHandler) Delete(c *fiber.Ctx) error {
	if err := h.customers.Delete(c.UserContext(), auth.IdentityFromContext(c), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
