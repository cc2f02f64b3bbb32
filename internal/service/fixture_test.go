package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/events"
	"github.com/spec-kit/tourdesk/internal/repository"
	"github.com/spec-kit/tourdesk/internal/repository/memory"
)

var fixedNow = time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	deps      Dependencies
	auth      *AuthService
	users     *UserService
	staff     *StaffService
	customers *CustomerService
	trips     *TripService
	recorded  *recorder
	admin     domain.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.New(), nil)
}

func newFixtureWithStore(t *testing.T, store *memory.Store, wrap func(repository.Store) repository.Store) *fixture {
	t.Helper()

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	rec := &recorder{}
	dispatcher := events.NewInMemoryDispatcher()
	events.SubscribeAll(dispatcher, rec.handle)

	var s repository.Store = store
	if wrap != nil {
		s = wrap(store)
	}
	deps := Dependencies{
		Store:      s,
		Policy:     auth.NewPolicyEngine(nil),
		Hasher:     hasher,
		Tokens:     auth.NewTokenManager("test-secret", 60),
		Dispatcher: dispatcher,
		Now:        func() time.Time { return fixedNow },
	}
	f := &fixture{
		store:     store,
		deps:      deps,
		auth:      NewAuthService(deps),
		users:     NewUserService(deps),
		staff:     NewStaffService(deps),
		customers: NewCustomerService(deps),
		trips:     NewTripService(deps),
		recorded:  rec,
	}

	created, err := f.users.EnsureAdmin(context.Background(), "admin@x.com", "admin-pass", "Admin")
	require.NoError(t, err)
	require.True(t, created)
	account, err := store.Accounts().GetByEmail(context.Background(), "admin@x.com")
	require.NoError(t, err)
	f.admin = domain.Identity{SubjectID: account.ID, Role: domain.RoleAdmin}
	return f
}

func (f *fixture) newStaff(t *testing.T, email string) (domain.Identity, *domain.StaffMember) {
	t.Helper()
	member, err := f.users.CreateStaff(context.Background(), f.admin, CreateStaffInput{
		Email:    email,
		Password: "pw12345",
		Name:     "Staff " + email,
		Position: "Manager",
	})
	require.NoError(t, err)
	return domain.Identity{SubjectID: member.Account.ID, Role: domain.RoleStaff}, member
}

func (f *fixture) newCustomer(t *testing.T, email string) (domain.Identity, *domain.Customer) {
	t.Helper()
	customer, err := f.users.CreateCustomer(context.Background(), f.admin, customerInput(email))
	require.NoError(t, err)
	return domain.Identity{SubjectID: customer.Account.ID, Role: domain.RoleCustomer}, customer
}

func customerInput(email string) CreateCustomerInput {
	return CreateCustomerInput{
		Email:    email,
		Password: "customer-pass",
		Name:     "Customer " + email,
		Phone:    "+100200300",
		Gender:   domain.GenderFemale,
		Age:      30,
		Address:  "1 Main St",
	}
}

func (f *fixture) countAccounts(t *testing.T) int {
	t.Helper()
	accounts, err := f.store.Accounts().List(context.Background(), repository.AccountFilter{Limit: 1000})
	require.NoError(t, err)
	return len(accounts)
}

// faultyStore fails staff profile creation inside units of work.
type faultyStore struct {
	repository.Store
}

func (s faultyStore) Staff() repository.StaffRepository {
	return faultyStaff{s.Store.Staff()}
}

func (s faultyStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(faultyStore{tx})
	})
}

type faultyStaff struct {
	repository.StaffRepository
}

func (faultyStaff) Create(context.Context, *domain.StaffProfile) error {
	return errors.New("disk full")
}

// blindStore hides existing emails from the pre-check so the unique
// constraint is the only guard left.
type blindStore struct {
	repository.Store
}

func (s blindStore) Accounts() repository.AccountRepository {
	return blindAccounts{s.Store.Accounts()}
}

type blindAccounts struct {
	repository.AccountRepository
}

func (blindAccounts) GetByEmail(context.Context, string) (*domain.Account, error) {
	return nil, repository.ErrNotFound
}

// lockHook runs fn once, right after the first row lock taken inside a unit
// of work, so a test can start a competing writer at that point.
type lockHook struct {
	once sync.Once
	fn   func()
}

func (h *lockHook) fire() {
	if h.fn != nil {
		h.once.Do(h.fn)
	}
}

type hookedStore struct {
	repository.Store
	hook *lockHook
}

func (s hookedStore) Accounts() repository.AccountRepository {
	return hookedAccounts{s.Store.Accounts(), s.hook}
}

func (s hookedStore) Trips() repository.TripRepository {
	return hookedTrips{s.Store.Trips(), s.hook}
}

func (s hookedStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(hookedStore{tx, s.hook})
	})
}

type hookedAccounts struct {
	repository.AccountRepository
	hook *lockHook
}

func (r hookedAccounts) GetByIDForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	account, err := r.AccountRepository.GetByIDForUpdate(ctx, id)
	r.hook.fire()
	return account, err
}

type hookedTrips struct {
	repository.TripRepository
	hook *lockHook
}

func (r hookedTrips) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	trip, err := r.TripRepository.GetByIDForUpdate(ctx, id)
	r.hook.fire()
	return trip, err
}

func newHookedFixture(t *testing.T) (*fixture, *lockHook) {
	t.Helper()
	hook := &lockHook{}
	f := newFixtureWithStore(t, memory.New(), func(s repository.Store) repository.Store {
		return hookedStore{s, hook}
	})
	return f, hook
}

// competing starts fn in the background from inside the hook and gives it a
// head start. The returned channel yields fn's error.
func competing(hook *lockHook, fn func() error) <-chan error {
	done := make(chan error, 1)
	hook.fn = func() {
		go func() { done <- fn() }()
		time.Sleep(20 * time.Millisecond)
	}
	return done
}

func await(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("competing writer did not finish")
		return nil
	}
}
