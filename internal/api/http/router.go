package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourdesk/internal/api/http/handlers"
	"github.com/spec-kit/tourdesk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Customers      *handlers.CustomersHandler
	Trips          *handlers.TripsHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         *auth.PolicyEngine
}

// RegisterRoutes wires HTTP routes. Each protected route is gated by its
// operation; the services evaluate the same operation again to apply scope.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)

	op := func(o auth.Operation) fiber.Handler {
		return auth.RequireOperation(cfg.Policy, o)
	}

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/", op(auth.OpListAccounts), cfg.Users.List)
	users.Post("/staff", op(auth.OpCreateStaff), cfg.Users.CreateStaff)
	users.Post("/customers", op(auth.OpCreateCustomer), cfg.Users.CreateCustomer)
	users.Get("/:id", op(auth.OpReadAccount), cfg.Users.Get)
	users.Put("/:id", op(auth.OpUpdateAccount), cfg.Users.Update)
	users.Put("/:id/credentials", op(auth.OpUpdateCredentials), cfg.Users.UpdateCredentials)
	users.Delete("/:id", op(auth.OpDeleteAccount), cfg.Users.Delete)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle)
	staff.Get("/", op(auth.OpListStaff), cfg.Staff.List)
	staff.Get("/:userId", op(auth.OpReadStaff), cfg.Staff.Get)
	staff.Put("/:userId", op(auth.OpUpdateStaff), cfg.Staff.Update)
	staff.Delete("/:userId", op(auth.OpDeleteStaff), cfg.Staff.Delete)

	customers := app.Group("/customers", cfg.AuthMiddleware.Handle)
	customers.Get("/", op(auth.OpListCustomers), cfg.Customers.List)
	customers.Get("/:userId", op(auth.OpReadCustomer), cfg.Customers.Get)
	customers.Put("/:userId", op(auth.OpUpdateCustomer), cfg.Customers.Update)
	customers.Delete("/:userId", op(auth.OpDeleteCustomer), cfg.Customers.Delete)

	trips := app.Group("/trips", cfg.AuthMiddleware.Handle)
	trips.Post("/", op(auth.OpCreateTrip), cfg.Trips.Create)
	trips.Get("/", op(auth.OpListTrips), cfg.Trips.List)
	trips.Get("/:id", op(auth.OpReadTrip), cfg.Trips.Get)
	trips.Put("/:id", op(auth.OpUpdateTrip), cfg.Trips.Update)
	trips.Patch("/:id/cancel", op(auth.OpCancelTrip), cfg.Trips.Cancel)
	trips.Delete("/:id", op(auth.OpDeleteTrip), cfg.Trips.Delete)
}
