// Package repositorytest holds behavior checks shared by every repository.Store
// implementation.
package repositorytest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/repository"
)

// StoreFactory returns an empty store.
type StoreFactory func(t *testing.T) repository.Store

// RunStore exercises a Store implementation.
func RunStore(t *testing.T, newStore StoreFactory) {
	t.Run("accounts", func(t *testing.T) { runAccounts(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { runTransactions(t, newStore(t)) })
	t.Run("staff", func(t *testing.T) { runStaff(t, newStore(t)) })
	t.Run("customers and trips", func(t *testing.T) { runTrips(t, newStore(t)) })
	t.Run("locked reads", func(t *testing.T) { runLockedReads(t, newStore(t)) })
}

func newAccount(email string, role domain.Role) *domain.Account {
	return &domain.Account{Email: email, Name: "Test " + string(role), PasswordHash: "hash", Role: role}
}

func runAccounts(t *testing.T, store repository.Store) {
	ctx := context.Background()
	repo := store.Accounts()

	first := newAccount("a@x.com", domain.RoleAdmin)
	require.NoError(t, repo.Create(ctx, first))
	require.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	err := repo.Create(ctx, newAccount("a@x.com", domain.RoleStaff))
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)

	second := newAccount("b@x.com", domain.RoleCustomer)
	require.NoError(t, repo.Create(ctx, second))

	got, err := repo.GetByEmail(ctx, "b@x.com")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, domain.RoleCustomer, got.Role)

	second.Email = "a@x.com"
	assert.ErrorIs(t, repo.Update(ctx, second), repository.ErrDuplicateEmail)

	second.Email = "c@x.com"
	second.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, second))
	got, err = repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", got.Email)
	assert.Equal(t, "Renamed", got.Name)

	role := domain.RoleAdmin
	admins, err := repo.List(ctx, repository.AccountFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, first.ID, admins[0].ID)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), repository.ErrNotFound)
}

func runTransactions(t *testing.T, store repository.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		account := newAccount("tx@x.com", domain.RoleStaff)
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		if err := tx.Staff().Create(ctx, &domain.StaffProfile{AccountID: account.ID, Position: "Guide"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Accounts().GetByEmail(ctx, "tx@x.com")
	assert.ErrorIs(t, err, repository.ErrNotFound, "rolled back account must not be visible")
	members, err := store.Staff().List(ctx, repository.StaffFilter{})
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, store.Accounts().Create(ctx, newAccount("taken@x.com", domain.RoleStaff)))
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		return tx.Accounts().Create(ctx, newAccount("taken@x.com", domain.RoleStaff))
	})
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
	all, err := store.Accounts().List(ctx, repository.AccountFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	var created string
	err = store.WithinTx(ctx, func(tx repository.Store) error {
		account := newAccount("ok@x.com", domain.RoleStaff)
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		created = account.ID
		return tx.Staff().Create(ctx, &domain.StaffProfile{AccountID: account.ID, Position: "Guide"})
	})
	require.NoError(t, err)
	profile, err := store.Staff().GetByAccountID(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Guide", profile.Position)
}

func runStaff(t *testing.T, store repository.Store) {
	ctx := context.Background()

	account := newAccount("staff@x.com", domain.RoleStaff)
	require.NoError(t, store.Accounts().Create(ctx, account))
	profile := &domain.StaffProfile{AccountID: account.ID, Position: "Manager"}
	require.NoError(t, store.Staff().Create(ctx, profile))

	assert.ErrorIs(t, store.Accounts().Delete(ctx, account.ID), repository.ErrReferenced)

	members, err := store.Staff().List(ctx, repository.StaffFilter{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, account.ID, members[0].AccountID)
	assert.Equal(t, "Manager", members[0].Position)

	profile.Position = "Director"
	require.NoError(t, store.Staff().Update(ctx, profile))
	got, err := store.Staff().GetByAccountID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Director", got.Position)

	require.NoError(t, store.Staff().Delete(ctx, account.ID))
	require.NoError(t, store.Accounts().Delete(ctx, account.ID))
	_, err = store.Staff().GetByAccountID(ctx, account.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Staff().Update(ctx, profile), repository.ErrNotFound)
}

func runTrips(t *testing.T, store repository.Store) {
	ctx := context.Background()

	customer := func(email string) *domain.CustomerProfile {
		account := newAccount(email, domain.RoleCustomer)
		require.NoError(t, store.Accounts().Create(ctx, account))
		profile := &domain.CustomerProfile{
			AccountID: account.ID,
			Phone:     "+100",
			Gender:    domain.GenderFemale,
			Age:       30,
			Address:   "1 Main St",
		}
		require.NoError(t, store.Customers().Create(ctx, profile))
		return profile
	}
	alice := customer("alice@x.com")
	bob := customer("bob@x.com")

	byAccount, err := store.Customers().GetByAccountID(ctx, alice.AccountID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byAccount.ID)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newTrip := func(owner *domain.CustomerProfile, city string) *domain.Trip {
		trip := &domain.Trip{
			CustomerID:  owner.ID,
			StartDate:   start,
			EndDate:     start.Add(96 * time.Hour),
			Destination: json.RawMessage(`{"city":"` + city + `"}`),
			Status:      domain.TripStatusPlanned,
		}
		require.NoError(t, store.Trips().Create(ctx, trip))
		return trip
	}

	err = store.Trips().Create(ctx, &domain.Trip{
		CustomerID:  uuid.NewString(),
		StartDate:   start,
		EndDate:     start.Add(time.Hour),
		Destination: json.RawMessage(`{}`),
		Status:      domain.TripStatusPlanned,
	})
	assert.ErrorIs(t, err, repository.ErrReferenced)

	older := newTrip(alice, "Bali")
	newer := newTrip(alice, "Oslo")
	other := newTrip(bob, "Lima")

	aliceID := alice.ID
	own, err := store.Trips().List(ctx, repository.TripFilter{CustomerID: &aliceID})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, newer.ID, own[0].ID, "newest first")
	assert.Equal(t, older.ID, own[1].ID)

	canceledAt := start.Add(-24 * time.Hour)
	other.Status = domain.TripStatusCanceled
	other.CanceledAt = &canceledAt
	require.NoError(t, store.Trips().Update(ctx, other))

	status := domain.TripStatusCanceled
	canceled, err := store.Trips().List(ctx, repository.TripFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, canceled, 1)
	require.NotNil(t, canceled[0].CanceledAt)
	assert.True(t, canceledAt.Equal(*canceled[0].CanceledAt))

	got, err := store.Trips().GetByID(ctx, older.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"city":"Bali"}`, string(got.Destination))

	paged, err := store.Trips().List(ctx, repository.TripFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)

	assert.ErrorIs(t, store.Customers().Delete(ctx, bob.AccountID), repository.ErrReferenced)
	require.NoError(t, store.Trips().Delete(ctx, other.ID))
	require.NoError(t, store.Customers().Delete(ctx, bob.AccountID))
	assert.ErrorIs(t, store.Trips().Delete(ctx, other.ID), repository.ErrNotFound)

	alice.Phone = "+200"
	alice.Age = 31
	require.NoError(t, store.Customers().Update(ctx, alice))
	customers, err := store.Customers().List(ctx, repository.CustomerFilter{})
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "+200", customers[0].Phone)
	assert.Equal(t, 31, customers[0].Age)
	assert.Equal(t, alice.AccountID, customers[0].AccountID)

	male := domain.GenderMale
	none, err := store.Customers().List(ctx, repository.CustomerFilter{Gender: &male})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func runLockedReads(t *testing.T, store repository.Store) {
	ctx := context.Background()

	account := newAccount("locked@x.com", domain.RoleCustomer)
	require.NoError(t, store.Accounts().Create(ctx, account))
	profile := &domain.CustomerProfile{AccountID: account.ID, Phone: "+100", Gender: domain.GenderMale, Age: 40, Address: "2 Side St"}
	require.NoError(t, store.Customers().Create(ctx, profile))
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	trip := &domain.Trip{
		CustomerID:  profile.ID,
		StartDate:   start,
		EndDate:     start.Add(48 * time.Hour),
		Destination: json.RawMessage(`{"city":"Rome"}`),
		Status:      domain.TripStatusPlanned,
	}
	require.NoError(t, store.Trips().Create(ctx, trip))

	err := store.WithinTx(ctx, func(tx repository.Store) error {
		got, err := tx.Accounts().GetByIDForUpdate(ctx, account.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, "locked@x.com", got.Email)
		_, err = tx.Trips().GetByIDForUpdate(ctx, uuid.NewString())
		assert.ErrorIs(t, err, repository.ErrNotFound)
		_, err = tx.Accounts().GetByIDForUpdate(ctx, uuid.NewString())
		assert.ErrorIs(t, err, repository.ErrNotFound)
		return nil
	})
	require.NoError(t, err)

	errCanceled := errors.New("already canceled")
	cancel := func() error {
		return store.WithinTx(ctx, func(tx repository.Store) error {
			got, err := tx.Trips().GetByIDForUpdate(ctx, trip.ID)
			if err != nil {
				return err
			}
			if got.Status != domain.TripStatusPlanned {
				return errCanceled
			}
			time.Sleep(10 * time.Millisecond)
			now := time.Now().UTC()
			got.Status = domain.TripStatusCanceled
			got.CanceledAt = &now
			return tx.Trips().Update(ctx, got)
		})
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cancel()
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errCanceled)
	}
	assert.Equal(t, 1, succeeded, "row lock must serialize read-then-write units")
}
