// Package memory provides an in-process repository.Store used by tests and by
// the memory storage backend.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/repository"
)

// Store is an in-memory repository.Store. It is safe for concurrent use.
// WithinTx holds the write lock for the whole unit and works on a copy of the
// data that replaces the live set only when the unit succeeds.
type Store struct {
	// mu is nil on the view handed to a WithinTx callback; the enclosing
	// unit already holds the lock.
	mu   *sync.RWMutex
	data *dataset
	now  func() time.Time
}

type dataset struct {
	seq       int64
	order     map[string]int64
	accounts  map[string]domain.Account
	staff     map[string]domain.StaffProfile    // keyed by account id
	customers map[string]domain.CustomerProfile // keyed by profile id
	trips     map[string]domain.Trip
}

// New returns an empty store using the wall clock.
func New() *Store {
	return NewWithClock(func() time.Time { return time.Now().UTC() })
}

// NewWithClock returns an empty store stamping rows with now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		mu: &sync.RWMutex{},
		data: &dataset{
			order:     map[string]int64{},
			accounts:  map[string]domain.Account{},
			staff:     map[string]domain.StaffProfile{},
			customers: map[string]domain.CustomerProfile{},
			trips:     map[string]domain.Trip{},
		},
		now: now,
	}
}

func (s *Store) Accounts() repository.AccountRepository   { return accounts{s} }
func (s *Store) Staff() repository.StaffRepository        { return staff{s} }
func (s *Store) Customers() repository.CustomerRepository { return customers{s} }
func (s *Store) Trips() repository.TripRepository         { return trips{s} }

// WithinTx runs fn against a private copy of the data. Nested calls join the
// enclosing unit.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.mu == nil {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.data.clone()
	if err := fn(&Store{data: work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

func (s *Store) rlock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// track records insertion order for rows created within the same instant.
func (d *dataset) track(id string) {
	d.seq++
	d.order[id] = d.seq
}

func (d *dataset) newer(aID string, aAt time.Time, bID string, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.After(bAt)
	}
	return d.order[aID] > d.order[bID]
}

func (d *dataset) clone() *dataset {
	out := &dataset{
		seq:       d.seq,
		order:     make(map[string]int64, len(d.order)),
		accounts:  make(map[string]domain.Account, len(d.accounts)),
		staff:     make(map[string]domain.StaffProfile, len(d.staff)),
		customers: make(map[string]domain.CustomerProfile, len(d.customers)),
		trips:     make(map[string]domain.Trip, len(d.trips)),
	}
	for k, v := range d.order {
		out.order[k] = v
	}
	for k, v := range d.accounts {
		out.accounts[k] = v
	}
	for k, v := range d.staff {
		out.staff[k] = v
	}
	for k, v := range d.customers {
		out.customers[k] = v
	}
	for k, v := range d.trips {
		out.trips[k] = cloneTrip(v)
	}
	return out
}

func cloneTrip(t domain.Trip) domain.Trip {
	if t.Destination != nil {
		t.Destination = append(json.RawMessage(nil), t.Destination...)
	}
	if t.CanceledAt != nil {
		at := *t.CanceledAt
		t.CanceledAt = &at
	}
	return t
}

func page[T any](items []T, limit, offset int) []T {
	limit, offset = repository.Page(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func sortNewest[T any](d *dataset, items []T, key func(T) (string, time.Time)) {
	sort.SliceStable(items, func(i, j int) bool {
		aID, aAt := key(items[i])
		bID, bAt := key(items[j])
		return d.newer(aID, aAt, bID, bAt)
	})
}
