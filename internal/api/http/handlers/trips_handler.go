package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tourdesk/internal/api/dto"
	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/service"
)

// TripsHandler manages trip endpoints.
type TripsHandler struct {
	trips *service.TripService
}

// NewTripsHandler constructs handler.
func NewTripsHandler(tripService *service.TripService) *TripsHandler {
	return &TripsHandler{trips: tripService}
}

// Create POST /trips.
func (h *TripsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTripRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	start, err := dto.ParseDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	end, err := dto.ParseDate("end_date", req.EndDate)
	if err != nil {
		return err
	}

	trip, err := h.trips.Create(c.UserContext(), auth.IdentityFromContext(c), service.CreateTripInput{
		CustomerID:  req.CustomerID,
		StartDate:   start,
		EndDate:     end,
		Destination: req.Destination,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TripFromDomain(trip)})
}

// List GET /trips. Customers only ever see their own trips.
func (h *TripsHandler) List(c *fiber.Ctx) error {
	query := parseTripQuery(c)
	trips, err := h.trips.List(c.UserContext(), auth.IdentityFromContext(c), service.TripFilter{
		Status: query.Status,
		Limit:  query.PageSize,
		Offset: (query.Page - 1) * query.PageSize,
	})
	if err != nil {
		return err
	}
	items := make([]dto.TripViewResponse, 0, len(trips))
	for i := range trips {
		items = append(items, dto.TripViewFromDomain(&trips[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /trips/:id.
func (h *TripsHandler) Get(c *fiber.Ctx) error {
	trip, err := h.trips.Get(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TripViewFromDomain(trip)})
}

// Update PUT /trips/:id.
func (h *TripsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTripRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	in := service.UpdateTripInput{Destination: req.Destination}
	var err error
	if in.StartDate, err = dto.OptionalDate("start_date", req.StartDate); err != nil {
		return err
	}
	if in.EndDate, err = dto.OptionalDate("end_date", req.EndDate); err != nil {
		return err
	}
	if in.Status, err = dto.Optional("status", req.Status); err != nil {
		return err
	}

	trip, err := h.trips.Update(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TripFromDomain(trip)})
}

// Cancel PATCH /trips/:id/cancel.
func (h *TripsHandler) Cancel(c *fiber.Ctx) error {
	trip, err := h.trips.Cancel(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TripFromDomain(trip)})
}

// Delete DELETE /trips/:id. The response carries the removed trip.
func (h *TripsHandler) Delete(c *fiber.Ctx) error {
	trip, err := h.trips.Delete(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TripFromDomain(trip)})
}

func parseTripQuery(c *fiber.Ctx) dto.TripListQuery {
	query := dto.TripListQuery{}
	if status := c.Query("status"); status != "" {
		s := domain.TripStatus(status)
		query.Status = &s
	}
	query.PageSize, _ = pagination(c)
	query.Page = parseIntQuery(c, "page", 1)
	return query
}
