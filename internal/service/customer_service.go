package service

import (
	"context"

	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/repository"
)

// UpdateCustomerInput changes customer profile fields. Nil fields are left
// unchanged.
type UpdateCustomerInput struct {
	Phone   *string
	Gender  *domain.Gender
	Age     *int
	Address *string
}

func (in UpdateCustomerInput) empty() bool {
	return in.Phone == nil && in.Gender == nil && in.Age == nil && in.Address == nil
}

// CustomerService manages customer profiles on behalf of staff.
type CustomerService struct {
	store   repository.Store
	policy  *auth.PolicyEngine
	remover accountRemover
}

// NewCustomerService creates the service.
func NewCustomerService(deps Dependencies) *CustomerService {
	deps = deps.withDefaults()
	return &CustomerService{
		store:   deps.Store,
		policy:  deps.Policy,
		remover: deps.remover(),
	}
}

// List returns customers with their account summaries.
func (s *CustomerService) List(ctx context.Context, actor domain.Identity, filter repository.CustomerFilter) ([]domain.Customer, error) {
	if err := s.policy.Authorize(actor, auth.OpListCustomers).Err(); err != nil {
		return nil, err
	}
	if filter.Gender != nil {
		if err := validateGender(*filter.Gender); err != nil {
			return nil, err
		}
	}
	profiles, err := s.store.Customers().List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "customer", nil)
	}
	customers := make([]domain.Customer, 0, len(profiles))
	for _, profile := range profiles {
		summary, err := accountSummary(ctx, s.store.Accounts(), profile.AccountID)
		if err != nil {
			return nil, err
		}
		customers = append(customers, domain.Customer{Profile: profile, Account: summary})
	}
	return customers, nil
}

// Get returns the customer owning accountID.
func (s *CustomerService) Get(ctx context.Context, actor domain.Identity, accountID string) (*domain.Customer, error) {
	if err := s.policy.Authorize(actor, auth.OpReadCustomer).Err(); err != nil {
		return nil, err
	}
	return s.load(ctx, accountID)
}

// Update applies a partial profile change.
func (s *CustomerService) Update(ctx context.Context, actor domain.Identity, accountID string, in UpdateCustomerInput) (*domain.Customer, error) {
	if err := s.policy.Authorize(actor, auth.OpUpdateCustomer).Err(); err != nil {
		return nil, err
	}
	customer, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return customer, nil
	}

	profile := customer.Profile
	if in.Phone != nil {
		profile.Phone = *in.Phone
	}
	if in.Gender != nil {
		profile.Gender = *in.Gender
	}
	if in.Age != nil {
		profile.Age = *in.Age
	}
	if in.Address != nil {
		profile.Address = *in.Address
	}
	if err := validateCustomerFields(profile.Phone, profile.Gender, profile.Age, profile.Address); err != nil {
		return nil, err
	}

	if err := s.store.Customers().Update(ctx, &profile); err != nil {
		return nil, storeError(err, "customer", map[string]any{"account_id": accountID})
	}
	customer.Profile = profile
	return customer, nil
}

// Delete removes the customer profile and its account as one unit.
func (s *CustomerService) Delete(ctx context.Context, actor domain.Identity, accountID string) error {
	if err := s.policy.Authorize(actor, auth.OpDeleteCustomer).Err(); err != nil {
		return err
	}
	return s.remover.remove(ctx, actor, accountID, domain.RoleCustomer)
}

// load reads the profile, then the owning account.
func (s *CustomerService) load(ctx context.Context, accountID string) (*domain.Customer, error) {
	details := map[string]any{"account_id": accountID}
	profile, err := s.store.Customers().GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, storeError(err, "customer", details)
	}
	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, storeError(err, "customer", details)
	}
	return &domain.Customer{Profile: *profile, Account: account.Summary()}, nil
}
