package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/events"
	"github.com/spec-kit/tourdesk/internal/repository"
	"github.com/spec-kit/tourdesk/internal/repository/memory"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

type denyThrottle struct{ resets int }

func (d *denyThrottle) Allow(context.Context, string) bool { return false }
func (d *denyThrottle) Reset(context.Context, string)      { d.resets++ }

func TestLogin_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	customer, err := f.users.RegisterCustomer(ctx, customerInput("Traveler@X.com"))
	require.NoError(t, err)
	assert.Equal(t, "traveler@x.com", customer.Account.Email)

	result, err := f.auth.Login(ctx, "traveler@x.com", "customer-pass")
	require.NoError(t, err)

	identity, err := f.deps.Tokens.Decode(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, customer.Account.ID, identity.SubjectID)
	assert.Equal(t, domain.RoleCustomer, identity.Role)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, wrongPassword := f.auth.Login(ctx, "admin@x.com", "nope")
	_, unknownEmail := f.auth.Login(ctx, "ghost@x.com", "nope")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(wrongPassword))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLogin_Throttled(t *testing.T) {
	f := newFixture(t)
	throttle := &denyThrottle{}
	deps := f.deps
	deps.Throttle = throttle

	_, err := NewAuthService(deps).Login(context.Background(), "admin@x.com", "admin-pass")
	assert.True(t, apperrors.Is(err, apperrors.CodeRateLimited))
	assert.Zero(t, throttle.resets)
}

func TestRegisterCustomer_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	short := customerInput("short@x.com")
	short.Password = "1234567"
	_, err := f.users.RegisterCustomer(ctx, short)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	badEmail := customerInput("not-an-email")
	_, err = f.users.RegisterCustomer(ctx, badEmail)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	badGender := customerInput("g@x.com")
	badGender.Gender = "UNKNOWN"
	_, err = f.users.RegisterCustomer(ctx, badGender)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	assert.Equal(t, 1, f.countAccounts(t))
}

func TestCreateStaff_Authorization(t *testing.T) {
	f := newFixture(t)
	staff, _ := f.newStaff(t, "staff@x.com")

	_, err := f.users.CreateStaff(context.Background(), staff, CreateStaffInput{
		Email: "other@x.com", Password: "pw", Name: "Other", Position: "Guide",
	})
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	_, err = f.users.CreateStaff(context.Background(), domain.Identity{}, CreateStaffInput{})
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	_, err = f.users.CreateCustomer(context.Background(), staff, customerInput("c@x.com"))
	assert.NoError(t, err)
}

func TestCreateStaff_DuplicateEmailLeavesNoRows(t *testing.T) {
	f := newFixture(t)
	f.newStaff(t, "staff@x.com")
	before := f.countAccounts(t)

	_, err := f.users.CreateStaff(context.Background(), f.admin, CreateStaffInput{
		Email: "STAFF@x.com", Password: "pw12345", Name: "Dup", Position: "Guide",
	})
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
	assert.Equal(t, before, f.countAccounts(t))
}

func TestCreateStaff_ConstraintDecidesRace(t *testing.T) {
	store := memory.New()
	f := newFixtureWithStore(t, store, func(s repository.Store) repository.Store { return blindStore{s} })

	_, err := f.users.CreateStaff(context.Background(), f.admin, CreateStaffInput{
		Email: "admin@x.com", Password: "pw12345", Name: "Dup", Position: "Guide",
	})
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))
	assert.Equal(t, 1, f.countAccounts(t))
}

func TestCreateStaff_ProfileFailureRollsBackAccount(t *testing.T) {
	store := memory.New()
	f := newFixtureWithStore(t, store, func(s repository.Store) repository.Store { return faultyStore{s} })

	_, err := f.users.CreateStaff(context.Background(), f.admin, CreateStaffInput{
		Email: "staff@x.com", Password: "pw12345", Name: "Staff", Position: "Guide",
	})
	assert.True(t, apperrors.Is(err, apperrors.CodeInternal))

	_, err = store.Accounts().GetByEmail(context.Background(), "staff@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []events.EventType{events.EventAccountCreated}, f.recorded.types(), "only the bootstrap admin event")
}

func TestUpdateCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, member := f.newStaff(t, "staff@x.com")
	id := member.Account.ID

	before, err := f.store.Accounts().GetByID(ctx, id)
	require.NoError(t, err)

	changed, err := f.users.UpdateCredentials(ctx, f.admin, id, UpdateCredentialsInput{})
	require.NoError(t, err)
	assert.False(t, changed)

	same := "staff@x.com"
	changed, err = f.users.UpdateCredentials(ctx, f.admin, id, UpdateCredentialsInput{Email: &same})
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := f.store.Accounts().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, before.Email, after.Email)

	taken := "admin@x.com"
	_, err = f.users.UpdateCredentials(ctx, f.admin, id, UpdateCredentialsInput{Email: &taken})
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	email, password := "new@x.com", "new-password"
	changed, err = f.users.UpdateCredentials(ctx, f.admin, id, UpdateCredentialsInput{Email: &email, Password: &password})
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = f.auth.Login(ctx, "new@x.com", "new-password")
	assert.NoError(t, err)
	_, err = f.auth.Login(ctx, "staff@x.com", "pw12345")
	assert.True(t, apperrors.Is(err, apperrors.CodeUnauthorized))

	_, err = f.users.UpdateCredentials(ctx, f.admin, "missing", UpdateCredentialsInput{})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
}

func TestUpdateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, member := f.newStaff(t, "staff@x.com")

	name := "Renamed"
	account, err := f.users.UpdateAccount(ctx, f.admin, member.Account.ID, UpdateAccountInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", account.Name)

	taken := "admin@x.com"
	_, err = f.users.UpdateAccount(ctx, f.admin, member.Account.ID, UpdateAccountInput{Email: &taken})
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	got, err := f.users.GetAccount(ctx, f.admin, member.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, domain.RoleStaff, got.Role)
}

func TestUpdateAccount_KeepsConcurrentPasswordChange(t *testing.T) {
	f, hook := newHookedFixture(t)
	ctx := context.Background()
	_, member := f.newStaff(t, "staff@x.com")
	id := member.Account.ID

	password := "rotated-pass"
	rotated := competing(hook, func() error {
		_, err := f.users.UpdateCredentials(ctx, f.admin, id, UpdateCredentialsInput{Password: &password})
		return err
	})

	name := "Renamed"
	_, err := f.users.UpdateAccount(ctx, f.admin, id, UpdateAccountInput{Name: &name})
	require.NoError(t, err)
	require.NoError(t, await(t, rotated))

	got, err := f.store.Accounts().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	_, err = f.auth.Login(ctx, "staff@x.com", "rotated-pass")
	assert.NoError(t, err)
}

func TestDeleteAccount_RemovesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, member := f.newStaff(t, "staff@x.com")

	require.NoError(t, f.users.DeleteAccount(ctx, f.admin, member.Account.ID))

	_, err := f.store.Staff().GetByAccountID(ctx, member.Account.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.store.Accounts().GetByID(ctx, member.Account.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	err = f.users.DeleteAccount(ctx, f.admin, member.Account.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	assert.Contains(t, f.recorded.types(), events.EventAccountDeleted)
}

func TestDeleteAccount_CustomerWithTripsConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff, _ := f.newStaff(t, "staff@x.com")
	_, customer := f.newCustomer(t, "cust@x.com")
	_, err := f.trips.Create(ctx, staff, tripInput(customer.Profile.ID))
	require.NoError(t, err)

	err = f.users.DeleteAccount(ctx, f.admin, customer.Account.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	_, err = f.store.Customers().GetByAccountID(ctx, customer.Account.ID)
	assert.NoError(t, err, "failed unit must leave the profile in place")
}

func TestEnsureAdmin_Idempotent(t *testing.T) {
	f := newFixture(t)
	created, err := f.users.EnsureAdmin(context.Background(), "admin@x.com", "admin-pass", "Admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, f.countAccounts(t))
}

func TestListAccounts(t *testing.T) {
	f := newFixture(t)
	f.newStaff(t, "staff@x.com")
	f.newCustomer(t, "cust@x.com")

	role := domain.RoleCustomer
	accounts, err := f.users.ListAccounts(context.Background(), f.admin, repository.AccountFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "cust@x.com", accounts[0].Email)
}
