package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/events"
	"github.com/spec-kit/tourdesk/internal/repository"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func tripInput(customerID string) CreateTripInput {
	return CreateTripInput{
		CustomerID:  customerID,
		StartDate:   date("2025-01-01"),
		EndDate:     date("2025-01-05"),
		Destination: json.RawMessage(`{"city":"Bali"}`),
	}
}

func TestCreateTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	customerIdentity, customer := f.newCustomer(t, "cust@x.com")

	trip, err := f.trips.Create(ctx, staff, tripInput(customer.Profile.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusPlanned, trip.Status)
	assert.Nil(t, trip.CanceledAt)
	assert.Contains(t, f.recorded.types(), events.EventTripCreated)

	_, err = f.trips.Create(ctx, customerIdentity, tripInput(customer.Profile.ID))
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
	_, err = f.trips.Create(ctx, f.admin, tripInput(customer.Profile.ID))
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	_, err = f.trips.Create(ctx, staff, tripInput("missing-profile"))
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestCreateTrip_DateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	_, customer := f.newCustomer(t, "cust@x.com")

	equal := tripInput(customer.Profile.ID)
	equal.EndDate = equal.StartDate
	_, err := f.trips.Create(ctx, staff, equal)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	reversed := tripInput(customer.Profile.ID)
	reversed.StartDate, reversed.EndDate = reversed.EndDate, reversed.StartDate
	_, err = f.trips.Create(ctx, staff, reversed)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	noDestination := tripInput(customer.Profile.ID)
	noDestination.Destination = nil
	_, err = f.trips.Create(ctx, staff, noDestination)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	trips, err := f.trips.List(ctx, staff, TripFilter{})
	require.NoError(t, err)
	assert.Empty(t, trips, "rejected creates must not leave rows")
}

func TestListTrips_Scope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	alice, aliceProfile := f.newCustomer(t, "alice@x.com")
	bob, bobProfile := f.newCustomer(t, "bob@x.com")

	first, err := f.trips.Create(ctx, staff, tripInput(aliceProfile.Profile.ID))
	require.NoError(t, err)
	second, err := f.trips.Create(ctx, staff, tripInput(aliceProfile.Profile.ID))
	require.NoError(t, err)
	_, err = f.trips.Create(ctx, staff, tripInput(bobProfile.Profile.ID))
	require.NoError(t, err)

	all, err := f.trips.List(ctx, staff, TripFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	emails := map[string]int{}
	for _, trip := range all {
		emails[trip.Customer.Email]++
	}
	assert.Equal(t, map[string]int{"alice@x.com": 2, "bob@x.com": 1}, emails)

	own, err := f.trips.List(ctx, alice, TripFilter{})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, second.ID, own[0].ID, "newest first")
	assert.Equal(t, first.ID, own[1].ID)
	for _, trip := range own {
		assert.Equal(t, aliceProfile.Profile.ID, trip.CustomerID)
		assert.Equal(t, domain.TripCustomer{
			ProfileID: aliceProfile.Profile.ID,
			AccountID: aliceProfile.Account.ID,
			Name:      "Customer alice@x.com",
			Email:     "alice@x.com",
		}, trip.Customer)
	}

	bobs, err := f.trips.List(ctx, bob, TripFilter{})
	require.NoError(t, err)
	assert.Len(t, bobs, 1)

	orphan := domain.Identity{SubjectID: "no-profile", Role: domain.RoleCustomer}
	none, err := f.trips.List(ctx, orphan, TripFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.trips.List(ctx, f.admin, TripFilter{})
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
	_, err = f.trips.List(ctx, domain.Identity{}, TripFilter{})
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	bad := domain.TripStatus("ARCHIVED")
	_, err = f.trips.List(ctx, staff, TripFilter{Status: &bad})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))
}

func TestGetTrip_ExistenceBeforeOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	alice, aliceProfile := f.newCustomer(t, "alice@x.com")
	bob, _ := f.newCustomer(t, "bob@x.com")

	trip, err := f.trips.Create(ctx, staff, tripInput(aliceProfile.Profile.ID))
	require.NoError(t, err)

	got, err := f.trips.Get(ctx, alice, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, got.ID)
	assert.Equal(t, aliceProfile.Account.ID, got.Customer.AccountID)
	assert.Equal(t, "alice@x.com", got.Customer.Email)

	_, err = f.trips.Get(ctx, bob, trip.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	_, err = f.trips.Get(ctx, bob, "missing")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	got, err = f.trips.Get(ctx, staff, trip.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Bali"}`, string(got.Destination))
	assert.Equal(t, aliceProfile.Profile.ID, got.Customer.ProfileID)
}

func TestUpdateTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	_, customer := f.newCustomer(t, "cust@x.com")
	trip, err := f.trips.Create(ctx, staff, tripInput(customer.Profile.ID))
	require.NoError(t, err)

	canceled := domain.TripStatusCanceled
	_, err = f.trips.Update(ctx, staff, trip.ID, UpdateTripInput{Status: &canceled})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidTransition))

	_, err = f.trips.Update(ctx, staff, "missing", UpdateTripInput{Status: &canceled})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound), "existence is checked first")

	beforeStart := date("2024-12-31")
	_, err = f.trips.Update(ctx, staff, trip.ID, UpdateTripInput{EndDate: &beforeStart})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	newEnd := date("2025-01-10")
	updated, err := f.trips.Update(ctx, staff, trip.ID, UpdateTripInput{
		EndDate:     &newEnd,
		Destination: json.RawMessage(`{"city":"Lombok"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, newEnd, updated.EndDate)
	assert.Equal(t, date("2025-01-01"), updated.StartDate)

	stored, err := f.store.Trips().GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Lombok"}`, string(stored.Destination))
}

func TestCancelTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	customerIdentity, customer := f.newCustomer(t, "cust@x.com")
	trip, err := f.trips.Create(ctx, staff, tripInput(customer.Profile.ID))
	require.NoError(t, err)

	_, err = f.trips.Cancel(ctx, customerIdentity, trip.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	canceled, err := f.trips.Cancel(ctx, staff, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)
	assert.Equal(t, fixedNow, *canceled.CanceledAt)

	_, err = f.trips.Cancel(ctx, staff, trip.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidTransition))

	planned := domain.TripStatusPlanned
	_, err = f.trips.Update(ctx, staff, trip.ID, UpdateTripInput{Status: &planned})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidTransition))
	cancelAgain := domain.TripStatusCanceled
	_, err = f.trips.Update(ctx, staff, trip.ID, UpdateTripInput{Status: &cancelAgain})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidTransition))

	status := domain.TripStatusCanceled
	list, err := f.trips.List(ctx, staff, TripFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Contains(t, f.recorded.types(), events.EventTripCanceled)
}

func TestUpdateTrip_KeepsConcurrentCancel(t *testing.T) {
	f, hook := newHookedFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	_, customer := f.newCustomer(t, "cust@x.com")
	trip, err := f.trips.Create(ctx, staff, tripInput(customer.Profile.ID))
	require.NoError(t, err)

	canceled := competing(hook, func() error {
		_, err := f.trips.Cancel(ctx, staff, trip.ID)
		return err
	})

	end := date("2025-01-10")
	updated, err := f.trips.Update(ctx, staff, trip.ID, UpdateTripInput{EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusPlanned, updated.Status)
	require.NoError(t, await(t, canceled))

	got, err := f.store.Trips().GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCanceled, got.Status)
	require.NotNil(t, got.CanceledAt)
	assert.True(t, got.EndDate.Equal(end))
}

func TestCancelTrip_ConcurrentCancelsSucceedOnce(t *testing.T) {
	f, hook := newHookedFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	_, customer := f.newCustomer(t, "cust@x.com")
	trip, err := f.trips.Create(ctx, staff, tripInput(customer.Profile.ID))
	require.NoError(t, err)

	second := competing(hook, func() error {
		_, err := f.trips.Cancel(ctx, staff, trip.ID)
		return err
	})

	_, err = f.trips.Cancel(ctx, staff, trip.ID)
	require.NoError(t, err)
	assert.True(t, apperrors.Is(await(t, second), apperrors.CodeInvalidTransition))

	count := 0
	for _, typ := range f.recorded.types() {
		if typ == events.EventTripCanceled {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestDeleteTrip_ReturnsDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	_, customer := f.newCustomer(t, "cust@x.com")
	trip, err := f.trips.Create(ctx, staff, tripInput(customer.Profile.ID))
	require.NoError(t, err)

	deleted, err := f.trips.Delete(ctx, staff, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, deleted.ID)

	_, err = f.store.Trips().GetByID(ctx, trip.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.trips.Delete(ctx, staff, trip.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	assert.Contains(t, f.recorded.types(), events.EventTripDeleted)
}

func TestStaffAndCustomerProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, member := f.newStaff(t, "staff@x.com")
	_, customer := f.newCustomer(t, "cust@x.com")

	got, err := f.staff.Get(ctx, f.admin, member.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff@x.com", got.Account.Email)

	_, err = f.staff.Get(ctx, f.admin, customer.Account.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	_, err = f.staff.List(ctx, staff, repository.StaffFilter{})
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
	members, err := f.staff.List(ctx, f.admin, repository.StaffFilter{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, member.Account.ID, members[0].Account.ID)
	assert.Equal(t, "staff@x.com", members[0].Account.Email)

	position := "Director"
	updated, err := f.staff.Update(ctx, f.admin, member.Account.ID, UpdateStaffInput{Position: &position})
	require.NoError(t, err)
	assert.Equal(t, "Director", updated.Profile.Position)

	age, phone := 31, "+999"
	c, err := f.customers.Update(ctx, staff, customer.Account.ID, UpdateCustomerInput{Age: &age, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, 31, c.Profile.Age)
	assert.Equal(t, "1 Main St", c.Profile.Address)

	negative := -1
	_, err = f.customers.Update(ctx, staff, customer.Account.ID, UpdateCustomerInput{Age: &negative})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	list, err := f.customers.List(ctx, staff, repository.CustomerFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 31, list[0].Profile.Age)
	assert.Equal(t, "cust@x.com", list[0].Account.Email)
	assert.Equal(t, customer.Account.ID, list[0].Account.ID)

	_, err = f.customers.List(ctx, f.admin, repository.CustomerFilter{})
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	err = f.staff.Delete(ctx, f.admin, customer.Account.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound), "staff delete must not remove a customer")

	require.NoError(t, f.customers.Delete(ctx, staff, customer.Account.ID))
	_, err = f.store.Accounts().GetByID(ctx, customer.Account.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, f.staff.Delete(ctx, f.admin, member.Account.ID))
	_, err = f.store.Staff().GetByAccountID(ctx, member.Account.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	member, err := f.users.CreateStaff(ctx, f.admin, CreateStaffInput{
		Email: "staff@x.com", Password: "pw12345", Name: "Staff", Position: "Manager",
	})
	require.NoError(t, err)

	staffLogin, err := f.auth.Login(ctx, "staff@x.com", "pw12345")
	require.NoError(t, err)
	staff, err := f.deps.Tokens.Decode(staffLogin.AccessToken)
	require.NoError(t, err)

	customer, err := f.users.CreateCustomer(ctx, staff, CreateCustomerInput{
		Email: "cust@x.com", Password: "cust-pass", Name: "Cust", Phone: "+1",
		Gender: domain.GenderFemale, Age: 30, Address: "Somewhere",
	})
	require.NoError(t, err)

	trip, err := f.trips.Create(ctx, staff, tripInput(customer.Profile.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusPlanned, trip.Status)

	custLogin, err := f.auth.Login(ctx, "cust@x.com", "cust-pass")
	require.NoError(t, err)
	cust, err := f.deps.Tokens.Decode(custLogin.AccessToken)
	require.NoError(t, err)

	own, err := f.trips.List(ctx, cust, TripFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, trip.ID, own[0].ID)

	_, err = f.trips.Create(ctx, cust, tripInput(customer.Profile.ID))
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	canceled, err := f.trips.Cancel(ctx, staff, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCanceled, canceled.Status)
	assert.NotNil(t, canceled.CanceledAt)

	require.NoError(t, f.users.DeleteAccount(ctx, f.admin, member.Account.ID))
	_, err = f.store.Staff().GetByAccountID(ctx, member.Account.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.auth.Login(ctx, "staff@x.com", "pw12345")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))
}
