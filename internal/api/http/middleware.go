package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tourdesk/internal/observability"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
// The request logger is outermost so it sees the status written by the error handler.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError also classifies errors raised by fiber itself, such as
// unmatched routes and malformed bodies.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return apperrors.ToDomainError(err)
	}
	switch fiberErr.Code {
	case fiber.StatusUnauthorized:
		return apperrors.ToDomainError(apperrors.NewUnauthorized(fiberErr.Message))
	case fiber.StatusForbidden:
		return apperrors.ToDomainError(apperrors.NewForbidden(fiberErr.Message))
	case fiber.StatusNotFound:
		return apperrors.NewDomainError(apperrors.CodeNotFound, fiberErr.Message, fiber.StatusNotFound, nil)
	case fiber.StatusConflict:
		return apperrors.ToDomainError(apperrors.NewConflict(fiberErr.Message, nil))
	case fiber.StatusTooManyRequests:
		return apperrors.ToDomainError(apperrors.NewRateLimited(fiberErr.Message))
	}
	if fiberErr.Code >= fiber.StatusInternalServerError {
		return apperrors.ToDomainError(apperrors.NewInternalError(fiberErr))
	}
	return apperrors.NewDomainError(apperrors.CodeInvalidInput, fiberErr.Message, fiberErr.Code, nil)
}
