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

// UsersHandler exposes account management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := repository.AccountFilter{}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	filter.Limit, filter.Offset = pagination(c)

	accounts, err := h.users.ListAccounts(c.UserContext(), auth.IdentityFromContext(c), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.AccountResponse, 0, len(accounts))
	for i := range accounts {
		resp = append(resp, dto.AccountFromDomain(&accounts[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	account, err := h.users.GetAccount(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AccountFromDomain(account)})
}

// CreateStaff handles POST /users/staff.
func (h *UsersHandler) CreateStaff(c *fiber.Ctx) error {
	var req dto.CreateStaffRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	member, err := h.users.CreateStaff(c.UserContext(), auth.IdentityFromContext(c), service.CreateStaffInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Position: req.Position,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.StaffFromDomain(member)})
}

// CreateCustomer handles POST /users/customers.
func (h *UsersHandler) CreateCustomer(c *fiber.Ctx) error {
	var req dto.CreateCustomerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	customer, err := h.users.CreateCustomer(c.UserContext(), auth.IdentityFromContext(c), service.CreateCustomerInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Gender:   req.Gender,
		Age:      req.Age,
		Address:  req.Address,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CustomerFromDomain(customer)})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateAccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	name, err := dto.Optional("name", req.Name)
	if err != nil {
		return err
	}
	email, err := dto.Optional("email", req.Email)
	if err != nil {
		return err
	}

	account, err := h.users.UpdateAccount(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), service.UpdateAccountInput{
		Name:  name,
		Email: email,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AccountFromDomain(account)})
}

// UpdateCredentials handles PUT /users/:id/credentials. A request that
// changes nothing still succeeds.
func (h *UsersHandler) UpdateCredentials(c *fiber.Ctx) error {
	var req dto.UpdateCredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	email, err := dto.Optional("email", req.Email)
	if err != nil {
		return err
	}
	password, err := dto.Optional("password", req.Password)
	if err != nil {
		return err
	}

	changed, err := h.users.UpdateCredentials(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), service.UpdateCredentialsInput{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": changed}})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.DeleteAccount(c.UserContext(), auth.IdentityFromContext(c), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
