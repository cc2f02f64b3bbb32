package service

import (
	"context"

	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/repository"
)

// UpdateStaffInput changes staff profile fields. Nil fields are left unchanged.
type UpdateStaffInput struct {
	Position *string
}

// StaffService manages staff profiles on behalf of administrators.
type StaffService struct {
	store   repository.Store
	policy  *auth.PolicyEngine
	remover accountRemover
}

// NewStaffService creates the service.
func NewStaffService(deps Dependencies) *StaffService {
	deps = deps.withDefaults()
	return &StaffService{
		store:   deps.Store,
		policy:  deps.Policy,
		remover: deps.remover(),
	}
}

// List returns staff members with their account summaries.
func (s *StaffService) List(ctx context.Context, actor domain.Identity, filter repository.StaffFilter) ([]domain.StaffMember, error) {
	if err := s.policy.Authorize(actor, auth.OpListStaff).Err(); err != nil {
		return nil, err
	}
	profiles, err := s.store.Staff().List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "staff", nil)
	}
	members := make([]domain.StaffMember, 0, len(profiles))
	for _, profile := range profiles {
		summary, err := accountSummary(ctx, s.store.Accounts(), profile.AccountID)
		if err != nil {
			return nil, err
		}
		members = append(members, domain.StaffMember{Profile: profile, Account: summary})
	}
	return members, nil
}

// Get returns the staff member owning accountID.
func (s *StaffService) Get(ctx context.Context, actor domain.Identity, accountID string) (*domain.StaffMember, error) {
	if err := s.policy.Authorize(actor, auth.OpReadStaff).Err(); err != nil {
		return nil, err
	}
	return s.load(ctx, accountID)
}

// Update changes the position of a staff member.
func (s *StaffService) Update(ctx context.Context, actor domain.Identity, accountID string, in UpdateStaffInput) (*domain.StaffMember, error) {
	if err := s.policy.Authorize(actor, auth.OpUpdateStaff).Err(); err != nil {
		return nil, err
	}
	member, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if in.Position == nil {
		return member, nil
	}
	if err := requireText("position", *in.Position); err != nil {
		return nil, err
	}

	member.Profile.Position = *in.Position
	if err := s.store.Staff().Update(ctx, &member.Profile); err != nil {
		return nil, storeError(err, "staff", map[string]any{"account_id": accountID})
	}
	return member, nil
}

// Delete removes the staff profile and its account as one unit.
func (s *StaffService) Delete(ctx context.Context, actor domain.Identity, accountID string) error {
	if err := s.policy.Authorize(actor, auth.OpDeleteStaff).Err(); err != nil {
		return err
	}
	return s.remover.remove(ctx, actor, accountID, domain.RoleStaff)
}

// load reads the profile, then the owning account.
func (s *StaffService) load(ctx context.Context, accountID string) (*domain.StaffMember, error) {
	details := map[string]any{"account_id": accountID}
	profile, err := s.store.Staff().GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, storeError(err, "staff", details)
	}
	account, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return nil, storeError(err, "staff", details)
	}
	return &domain.StaffMember{Profile: *profile, Account: account.Summary()}, nil
}
