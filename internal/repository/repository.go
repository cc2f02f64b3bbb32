package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/tourdesk/internal/domain"
)

var (
	// ErrNotFound is returned when an addressed row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail is returned when an account email is already taken.
	ErrDuplicateEmail = errors.New("repository: duplicate email")
	// ErrDuplicate is returned for any other uniqueness violation.
	ErrDuplicate = errors.New("repository: duplicate row")
	// ErrReferenced is returned when a write would break a reference between rows.
	ErrReferenced = errors.New("repository: referenced row")
)

// DefaultListLimit caps list queries that do not set a limit.
const DefaultListLimit = 50

// Store groups the entity repositories. Repositories obtained from the Store
// passed to WithinTx's callback share that unit of work.
type Store interface {
	Accounts() AccountRepository
	Staff() StaffRepository
	Customers() CustomerRepository
	Trips() TripRepository
	// WithinTx runs fn as one all-or-nothing unit. An error from fn discards
	// every write fn made.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// AccountRepository defines persistence access for login accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDForUpdate reads an account and holds it against concurrent
	// writers until the enclosing WithinTx unit ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter AccountFilter) ([]domain.Account, error)
}

// AccountFilter defines query params for account listing.
type AccountFilter struct {
	Role   *domain.Role
	Limit  int
	Offset int
}

// StaffRepository handles persistence for staff profiles.
type StaffRepository interface {
	Create(ctx context.Context, profile *domain.StaffProfile) error
	Update(ctx context.Context, profile *domain.StaffProfile) error
	GetByAccountID(ctx context.Context, accountID string) (*domain.StaffProfile, error)
	Delete(ctx context.Context, accountID string) error
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffProfile, error)
}

// StaffFilter defines query params for staff listing. Results are newest first.
type StaffFilter struct {
	Limit  int
	Offset int
}

// CustomerRepository handles persistence for customer profiles.
type CustomerRepository interface {
	Create(ctx context.Context, profile *domain.CustomerProfile) error
	Update(ctx context.Context, profile *domain.CustomerProfile) error
	GetByID(ctx context.Context, id string) (*domain.CustomerProfile, error)
	GetByAccountID(ctx context.Context, accountID string) (*domain.CustomerProfile, error)
	Delete(ctx context.Context, accountID string) error
	List(ctx context.Context, filter CustomerFilter) ([]domain.CustomerProfile, error)
}

// CustomerFilter defines query params for customer listing. Results are newest
// first.
type CustomerFilter struct {
	Gender *domain.Gender
	Limit  int
	Offset int
}

// TripRepository handles persistence for trips.
type TripRepository interface {
	Create(ctx context.Context, trip *domain.Trip) error
	Update(ctx context.Context, trip *domain.Trip) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	// GetByIDForUpdate reads a trip and holds it against concurrent writers
	// until the enclosing WithinTx unit ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TripFilter) ([]domain.Trip, error)
}

// TripFilter defines query params for trip listing. Results are newest first.
type TripFilter struct {
	CustomerID *string
	Status     *domain.TripStatus
	Limit      int
	Offset     int
}

// Page normalizes limit and offset.
func Page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
