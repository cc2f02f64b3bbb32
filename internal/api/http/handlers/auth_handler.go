package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourdesk/internal/api/dto"
	"github.com/spec-kit/tourdesk/internal/service"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// AuthHandler exposes the public login and sign-up endpoints.
type AuthHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{auth: authService, users: userService}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewInvalidInput("email and password required", nil)
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": authResponse(result)})
}

// Register handles POST /auth/register. It creates a customer account and
// signs the new customer in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	customer, err := h.users.RegisterCustomer(c.UserContext(), service.CreateCustomerInput{
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
	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"customer": dto.CustomerFromDomain(customer),
			"auth":     authResponse(result),
		},
	})
}

func authResponse(result *service.LoginResult) dto.AuthResponse {
	return dto.AuthResponse{
		Token:     result.AccessToken,
		ExpiresAt: result.ExpiresAt,
		AccountID: result.AccountID,
		Role:      result.Role,
	}
}
