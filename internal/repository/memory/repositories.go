package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/repository"
)

type accounts struct{ s *Store }

func (r accounts) Create(_ context.Context, account *domain.Account) error {
	defer r.s.lock()()
	d := r.s.data
	if emailTaken(d, account.Email, "") {
		return repository.ErrDuplicateEmail
	}
	now := r.s.now()
	account.ID = uuid.NewString()
	account.CreatedAt, account.UpdatedAt = now, now
	d.accounts[account.ID] = *account
	d.track(account.ID)
	return nil
}

func (r accounts) Update(_ context.Context, account *domain.Account) error {
	defer r.s.lock()()
	d := r.s.data
	existing, ok := d.accounts[account.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if emailTaken(d, account.Email, account.ID) {
		return repository.ErrDuplicateEmail
	}
	existing.Email = account.Email
	existing.Name = account.Name
	existing.PasswordHash = account.PasswordHash
	existing.UpdatedAt = r.s.now()
	d.accounts[account.ID] = existing
	account.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r accounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	defer r.s.rlock()()
	account, ok := r.s.data.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &account, nil
}

// GetByIDForUpdate is a plain read; WithinTx already holds the store
// exclusively for the whole unit.
func (r accounts) GetByIDForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r accounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	defer r.s.rlock()()
	for _, account := range r.s.data.accounts {
		if account.Email == email {
			return &account, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r accounts) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.accounts[id]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := d.staff[id]; ok {
		return repository.ErrReferenced
	}
	for _, profile := range d.customers {
		if profile.AccountID == id {
			return repository.ErrReferenced
		}
	}
	delete(d.accounts, id)
	delete(d.order, id)
	return nil
}

func (r accounts) List(_ context.Context, filter repository.AccountFilter) ([]domain.Account, error) {
	defer r.s.rlock()()
	d := r.s.data
	out := make([]domain.Account, 0, len(d.accounts))
	for _, account := range d.accounts {
		if filter.Role != nil && account.Role != *filter.Role {
			continue
		}
		out = append(out, account)
	}
	sortNewest(d, out, func(a domain.Account) (string, time.Time) { return a.ID, a.CreatedAt })
	return page(out, filter.Limit, filter.Offset), nil
}

func emailTaken(d *dataset, email, exceptID string) bool {
	for id, account := range d.accounts {
		if id != exceptID && account.Email == email {
			return true
		}
	}
	return false
}

type staff struct{ s *Store }

func (r staff) Create(_ context.Context, profile *domain.StaffProfile) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.accounts[profile.AccountID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := d.staff[profile.AccountID]; ok {
		return repository.ErrDuplicate
	}
	now := r.s.now()
	profile.ID = uuid.NewString()
	profile.CreatedAt, profile.UpdatedAt = now, now
	d.staff[profile.AccountID] = *profile
	d.track(profile.ID)
	return nil
}

func (r staff) Update(_ context.Context, profile *domain.StaffProfile) error {
	defer r.s.lock()()
	d := r.s.data
	existing, ok := d.staff[profile.AccountID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Position = profile.Position
	existing.UpdatedAt = r.s.now()
	d.staff[profile.AccountID] = existing
	profile.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r staff) GetByAccountID(_ context.Context, accountID string) (*domain.StaffProfile, error) {
	defer r.s.rlock()()
	profile, ok := r.s.data.staff[accountID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &profile, nil
}

func (r staff) Delete(_ context.Context, accountID string) error {
	defer r.s.lock()()
	d := r.s.data
	profile, ok := d.staff[accountID]
	if !ok {
		return repository.ErrNotFound
	}
	delete(d.staff, accountID)
	delete(d.order, profile.ID)
	return nil
}

func (r staff) List(_ context.Context, filter repository.StaffFilter) ([]domain.StaffProfile, error) {
	defer r.s.rlock()()
	d := r.s.data
	out := make([]domain.StaffProfile, 0, len(d.staff))
	for _, profile := range d.staff {
		out = append(out, profile)
	}
	sortNewest(d, out, func(p domain.StaffProfile) (string, time.Time) { return p.ID, p.CreatedAt })
	return page(out, filter.Limit, filter.Offset), nil
}

type customers struct{ s *Store }

func (r customers) Create(_ context.Context, profile *domain.CustomerProfile) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.accounts[profile.AccountID]; !ok {
		return repository.ErrReferenced
	}
	if _, ok := customerByAccount(d, profile.AccountID); ok {
		return repository.ErrDuplicate
	}
	now := r.s.now()
	profile.ID = uuid.NewString()
	profile.CreatedAt, profile.UpdatedAt = now, now
	d.customers[profile.ID] = *profile
	d.track(profile.ID)
	return nil
}

func (r customers) Update(_ context.Context, profile *domain.CustomerProfile) error {
	defer r.s.lock()()
	d := r.s.data
	existing, ok := customerByAccount(d, profile.AccountID)
	if !ok {
		return repository.ErrNotFound
	}
	existing.Phone = profile.Phone
	existing.Gender = profile.Gender
	existing.Age = profile.Age
	existing.Address = profile.Address
	existing.UpdatedAt = r.s.now()
	d.customers[existing.ID] = existing
	profile.UpdatedAt = existing.UpdatedAt
	return nil
}

func (r customers) GetByID(_ context.Context, id string) (*domain.CustomerProfile, error) {
	defer r.s.rlock()()
	profile, ok := r.s.data.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &profile, nil
}

func (r customers) GetByAccountID(_ context.Context, accountID string) (*domain.CustomerProfile, error) {
	defer r.s.rlock()()
	profile, ok := customerByAccount(r.s.data, accountID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &profile, nil
}

func (r customers) Delete(_ context.Context, accountID string) error {
	defer r.s.lock()()
	d := r.s.data
	profile, ok := customerByAccount(d, accountID)
	if !ok {
		return repository.ErrNotFound
	}
	for _, trip := range d.trips {
		if trip.CustomerID == profile.ID {
			return repository.ErrReferenced
		}
	}
	delete(d.customers, profile.ID)
	delete(d.order, profile.ID)
	return nil
}

func (r customers) List(_ context.Context, filter repository.CustomerFilter) ([]domain.CustomerProfile, error) {
	defer r.s.rlock()()
	d := r.s.data
	out := make([]domain.CustomerProfile, 0, len(d.customers))
	for _, profile := range d.customers {
		if filter.Gender != nil && profile.Gender != *filter.Gender {
			continue
		}
		out = append(out, profile)
	}
	sortNewest(d, out, func(p domain.CustomerProfile) (string, time.Time) { return p.ID, p.CreatedAt })
	return page(out, filter.Limit, filter.Offset), nil
}

func customerByAccount(d *dataset, accountID string) (domain.CustomerProfile, bool) {
	for _, profile := range d.customers {
		if profile.AccountID == accountID {
			return profile, true
		}
	}
	return domain.CustomerProfile{}, false
}

type trips struct{ s *Store }

func (r trips) Create(_ context.Context, trip *domain.Trip) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.customers[trip.CustomerID]; !ok {
		return repository.ErrReferenced
	}
	now := r.s.now()
	trip.ID = uuid.NewString()
	trip.CreatedAt, trip.UpdatedAt = now, now
	d.trips[trip.ID] = cloneTrip(*trip)
	d.track(trip.ID)
	return nil
}

func (r trips) Update(_ context.Context, trip *domain.Trip) error {
	defer r.s.lock()()
	d := r.s.data
	existing, ok := d.trips[trip.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := cloneTrip(*trip)
	next.CustomerID = existing.CustomerID
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = r.s.now()
	d.trips[trip.ID] = next
	trip.UpdatedAt = next.UpdatedAt
	return nil
}

func (r trips) GetByID(_ context.Context, id string) (*domain.Trip, error) {
	defer r.s.rlock()()
	trip, ok := r.s.data.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneTrip(trip)
	return &out, nil
}

// GetByIDForUpdate is a plain read; WithinTx already holds the store
// exclusively for the whole unit.
func (r trips) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r trips) Delete(_ context.Context, id string) error {
	defer r.s.lock()()
	d := r.s.data
	if _, ok := d.trips[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.trips, id)
	delete(d.order, id)
	return nil
}

func (r trips) List(_ context.Context, filter repository.TripFilter) ([]domain.Trip, error) {
	defer r.s.rlock()()
	d := r.s.data
	out := make([]domain.Trip, 0, len(d.trips))
	for _, trip := range d.trips {
		if filter.CustomerID != nil && trip.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && trip.Status != *filter.Status {
			continue
		}
		out = append(out, cloneTrip(trip))
	}
	sortNewest(d, out, func(t domain.Trip) (string, time.Time) { return t.ID, t.CreatedAt })
	return page(out, filter.Limit, filter.Offset), nil
}
