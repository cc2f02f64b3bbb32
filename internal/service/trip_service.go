package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/events"
	"github.com/spec-kit/tourdesk/internal/repository"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// CreateTripInput describes a new trip.
type CreateTripInput struct {
	CustomerID  string
	StartDate   time.Time
	EndDate     time.Time
	Destination json.RawMessage
}

// UpdateTripInput is a partial trip change. Nil fields are left unchanged.
type UpdateTripInput struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Destination json.RawMessage
	Status      *domain.TripStatus
}

// TripFilter narrows list results.
type TripFilter struct {
	Status *domain.TripStatus
	Limit  int
	Offset int
}

// TripService manages the trip lifecycle.
type TripService struct {
	store  repository.Store
	policy *auth.PolicyEngine
	events publisher
	now    func() time.Time
}

// NewTripService creates the service.
func NewTripService(deps Dependencies) *TripService {
	deps = deps.withDefaults()
	return &TripService{
		store:  deps.Store,
		policy: deps.Policy,
		events: deps.publisher(),
		now:    deps.Now,
	}
}

// Create books a PLANNED trip for an existing customer profile.
func (s *TripService) Create(ctx context.Context, actor domain.Identity, in CreateTripInput) (*domain.Trip, error) {
	if err := s.policy.Authorize(actor, auth.OpCreateTrip).Err(); err != nil {
		return nil, err
	}
	if err := requireText("customer_id", in.CustomerID); err != nil {
		return nil, err
	}
	if err := domain.ValidateDateRange(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}
	if err := domain.ValidateDestination(in.Destination); err != nil {
		return nil, err
	}
	if _, err := s.store.Customers().GetByID(ctx, in.CustomerID); err != nil {
		return nil, storeError(err, "customer", map[string]any{"customer_id": in.CustomerID})
	}

	trip := &domain.Trip{
		CustomerID:  in.CustomerID,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Destination: in.Destination,
		Status:      domain.TripStatusPlanned,
	}
	if err := s.store.Trips().Create(ctx, trip); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": in.CustomerID})
		}
		return nil, storeError(err, "trip", nil)
	}

	s.events.publish(ctx, events.New(events.EventTripCreated, trip.ID, actor, s.now(), events.TripCreatedPayload{
		CustomerID: trip.CustomerID,
		StartDate:  trip.StartDate,
		EndDate:    trip.EndDate,
	}))
	return trip, nil
}

// List returns trips newest first, each with its customer's contact
// details. Staff see every trip; customers see only their own, and a customer
// without a profile sees none.
func (s *TripService) List(ctx context.Context, actor domain.Identity, filter TripFilter) ([]domain.TripView, error) {
	decision := s.policy.Authorize(actor, auth.OpListTrips)
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewInvalidInput("unknown trip status", map[string]any{"status": *filter.Status})
	}

	owners := newTripOwners(s.store)
	query := repository.TripFilter{Status: filter.Status, Limit: filter.Limit, Offset: filter.Offset}
	if decision.Scope.Narrowed() {
		profile, err := s.store.Customers().GetByAccountID(ctx, decision.Scope.OwnerAccountID)
		if errors.Is(err, repository.ErrNotFound) {
			return []domain.TripView{}, nil
		}
		if err != nil {
			return nil, storeError(err, "customer", nil)
		}
		if _, err := owners.add(ctx, profile); err != nil {
			return nil, err
		}
		query.CustomerID = &profile.ID
	}

	trips, err := s.store.Trips().List(ctx, query)
	if err != nil {
		return nil, storeError(err, "trip", nil)
	}
	views := make([]domain.TripView, 0, len(trips))
	for _, trip := range trips {
		customer, err := owners.get(ctx, trip.CustomerID)
		if err != nil {
			return nil, err
		}
		views = append(views, domain.TripView{Trip: trip, Customer: customer})
	}
	return views, nil
}

// Get returns one trip with its customer's contact details. A customer asking
// for another customer's trip is refused only after the trip is known to exist.
func (s *TripService) Get(ctx context.Context, actor domain.Identity, id string) (*domain.TripView, error) {
	var (
		trip    *domain.Trip
		profile *domain.CustomerProfile
	)
	load := func(ctx context.Context) (string, error) {
		var err error
		if trip, err = s.load(ctx, id); err != nil {
			return "", err
		}
		if profile, err = s.store.Customers().GetByID(ctx, trip.CustomerID); err != nil {
			return "", storeError(err, "customer", map[string]any{"customer_id": trip.CustomerID})
		}
		return profile.AccountID, nil
	}

	decision, err := s.policy.AuthorizeResource(ctx, actor, auth.OpReadTrip, load)
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	if trip == nil {
		if trip, err = s.load(ctx, id); err != nil {
			return nil, err
		}
	}

	owners := newTripOwners(s.store)
	var customer domain.TripCustomer
	if profile != nil {
		customer, err = owners.add(ctx, profile)
	} else {
		customer, err = owners.get(ctx, trip.CustomerID)
	}
	if err != nil {
		return nil, err
	}
	return &domain.TripView{Trip: *trip, Customer: customer}, nil
}

// Update applies a partial change. Cancellation is rejected here; it has its
// own operation that records when it happened. The trip is read and written
// under one lock so a concurrent cancel is never overwritten.
func (s *TripService) Update(ctx context.Context, actor domain.Identity, id string, in UpdateTripInput) (*domain.Trip, error) {
	if err := s.policy.Authorize(actor, auth.OpUpdateTrip).Err(); err != nil {
		return nil, err
	}

	var trip *domain.Trip
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		trip, err = lockTrip(ctx, tx, id)
		if err != nil {
			return err
		}
		if in.Status != nil {
			if err := trip.ApplyStatus(*in.Status); err != nil {
				return err
			}
		}
		if trip.Status == domain.TripStatusCanceled && (in.StartDate != nil || in.EndDate != nil || in.Destination != nil) {
			return apperrors.NewInvalidTransition("canceled trips cannot be changed", map[string]any{"trip_id": id})
		}
		if err := trip.Reschedule(utcPtr(in.StartDate), utcPtr(in.EndDate)); err != nil {
			return err
		}
		if in.Destination != nil {
			if err := domain.ValidateDestination(in.Destination); err != nil {
				return err
			}
			trip.Destination = in.Destination
		}
		if err := tx.Trips().Update(ctx, trip); err != nil {
			return storeError(err, "trip", map[string]any{"trip_id": id})
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "trip", map[string]any{"trip_id": id})
	}
	return trip, nil
}

// Cancel moves a PLANNED trip to CANCELED and stamps the time.
func (s *TripService) Cancel(ctx context.Context, actor domain.Identity, id string) (*domain.Trip, error) {
	if err := s.policy.Authorize(actor, auth.OpCancelTrip).Err(); err != nil {
		return nil, err
	}

	var trip *domain.Trip
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		trip, err = lockTrip(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := trip.Cancel(s.now()); err != nil {
			return err
		}
		if err := tx.Trips().Update(ctx, trip); err != nil {
			return storeError(err, "trip", map[string]any{"trip_id": id})
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "trip", map[string]any{"trip_id": id})
	}

	s.events.publish(ctx, events.New(events.EventTripCanceled, trip.ID, actor, s.now(), events.TripCanceledPayload{
		CustomerID: trip.CustomerID,
		CanceledAt: *trip.CanceledAt,
	}))
	return trip, nil
}

// Delete removes a trip and returns it as it was.
func (s *TripService) Delete(ctx context.Context, actor domain.Identity, id string) (*domain.Trip, error) {
	if err := s.policy.Authorize(actor, auth.OpDeleteTrip).Err(); err != nil {
		return nil, err
	}
	trip, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.store.Trips().Delete(ctx, id); err != nil {
		return nil, storeError(err, "trip", map[string]any{"trip_id": id})
	}

	s.events.publish(ctx, events.New(events.EventTripDeleted, trip.ID, actor, s.now(), events.TripDeletedPayload{
		CustomerID: trip.CustomerID,
		Status:     trip.Status,
	}))
	return trip, nil
}

func (s *TripService) load(ctx context.Context, id string) (*domain.Trip, error) {
	trip, err := s.store.Trips().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "trip", map[string]any{"trip_id": id})
	}
	return trip, nil
}

// tripOwners resolves trip customers with a profile read followed by an
// account read, remembering each profile for the rest of the call.
type tripOwners struct {
	store repository.Store
	seen  map[string]domain.TripCustomer
}

func newTripOwners(store repository.Store) *tripOwners {
	return &tripOwners{store: store, seen: map[string]domain.TripCustomer{}}
}

func (o *tripOwners) get(ctx context.Context, profileID string) (domain.TripCustomer, error) {
	if customer, ok := o.seen[profileID]; ok {
		return customer, nil
	}
	profile, err := o.store.Customers().GetByID(ctx, profileID)
	if err != nil {
		return domain.TripCustomer{}, storeError(err, "customer", map[string]any{"customer_id": profileID})
	}
	return o.add(ctx, profile)
}

func (o *tripOwners) add(ctx context.Context, profile *domain.CustomerProfile) (domain.TripCustomer, error) {
	account, err := o.store.Accounts().GetByID(ctx, profile.AccountID)
	if err != nil {
		return domain.TripCustomer{}, storeError(err, "account", map[string]any{"account_id": profile.AccountID})
	}
	customer := domain.TripCustomer{
		ProfileID: profile.ID,
		AccountID: account.ID,
		Name:      account.Name,
		Email:     account.Email,
	}
	o.seen[profile.ID] = customer
	return customer, nil
}

func lockTrip(ctx context.Context, tx repository.Store, id string) (*domain.Trip, error) {
	trip, err := tx.Trips().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, storeError(err, "trip", map[string]any{"trip_id": id})
	}
	return trip, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
