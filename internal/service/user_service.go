package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/events"
	"github.com/spec-kit/tourdesk/internal/repository"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// minSelfServicePassword applies to public registration only.
const minSelfServicePassword = 8

// CreateStaffInput describes a new staff account.
type CreateStaffInput struct {
	Email    string
	Password string
	Name     string
	Position string
}

// CreateCustomerInput describes a new customer account.
type CreateCustomerInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Gender   domain.Gender
	Age      int
	Address  string
}

// UpdateAccountInput changes identity fields. Nil fields are left unchanged.
type UpdateAccountInput struct {
	Name  *string
	Email *string
}

// UpdateCredentialsInput changes login fields. Nil fields are left unchanged.
type UpdateCredentialsInput struct {
	Email    *string
	Password *string
}

// UserService owns the account lifecycle: creation and deletion of accounts
// together with their profiles, and identity and credential updates.
type UserService struct {
	store   repository.Store
	policy  *auth.PolicyEngine
	hasher  *auth.PasswordHasher
	events  publisher
	remover accountRemover
	now     func() time.Time
}

// NewUserService builds the service.
func NewUserService(deps Dependencies) *UserService {
	deps = deps.withDefaults()
	return &UserService{
		store:   deps.Store,
		policy:  deps.Policy,
		hasher:  deps.Hasher,
		events:  deps.publisher(),
		remover: deps.remover(),
		now:     deps.Now,
	}
}

// CreateStaff creates a staff account and its profile as one unit.
func (s *UserService) CreateStaff(ctx context.Context, actor domain.Identity, in CreateStaffInput) (*domain.StaffMember, error) {
	if err := s.policy.Authorize(actor, auth.OpCreateStaff).Err(); err != nil {
		return nil, err
	}
	in.Email = normalizeEmail(in.Email)
	if err := validateNewAccount(in.Email, in.Password, in.Name); err != nil {
		return nil, err
	}
	if err := requireText("position", in.Position); err != nil {
		return nil, err
	}

	account, err := s.newAccount(ctx, in.Email, in.Password, in.Name, domain.RoleStaff)
	if err != nil {
		return nil, err
	}
	profile := &domain.StaffProfile{Position: in.Position}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		profile.AccountID = account.ID
		return tx.Staff().Create(ctx, profile)
	})
	if err != nil {
		return nil, storeError(err, "staff", nil)
	}

	s.events.publish(ctx, events.New(events.EventAccountCreated, account.ID, actor, s.now(), events.AccountCreatedPayload{
		Email:     account.Email,
		Role:      account.Role,
		ProfileID: profile.ID,
	}))
	return &domain.StaffMember{Profile: *profile, Account: account.Summary()}, nil
}

// CreateCustomer creates a customer account and its profile as one unit.
func (s *UserService) CreateCustomer(ctx context.Context, actor domain.Identity, in CreateCustomerInput) (*domain.Customer, error) {
	if err := s.policy.Authorize(actor, auth.OpCreateCustomer).Err(); err != nil {
		return nil, err
	}
	return s.createCustomer(ctx, actor, in)
}

// RegisterCustomer is the public self-service variant of CreateCustomer.
func (s *UserService) RegisterCustomer(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error) {
	actor := domain.Identity{}
	if err := s.policy.Authorize(actor, auth.OpRegisterCustomer).Err(); err != nil {
		return nil, err
	}
	if len(in.Password) < minSelfServicePassword {
		return nil, apperrors.NewInvalidInput("password must be at least 8 characters", nil)
	}
	return s.createCustomer(ctx, actor, in)
}

func (s *UserService) createCustomer(ctx context.Context, actor domain.Identity, in CreateCustomerInput) (*domain.Customer, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateNewAccount(in.Email, in.Password, in.Name); err != nil {
		return nil, err
	}
	if err := validateCustomerFields(in.Phone, in.Gender, in.Age, in.Address); err != nil {
		return nil, err
	}

	account, err := s.newAccount(ctx, in.Email, in.Password, in.Name, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}
	profile := &domain.CustomerProfile{
		Phone:   in.Phone,
		Gender:  in.Gender,
		Age:     in.Age,
		Address: in.Address,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Accounts().Create(ctx, account); err != nil {
			return err
		}
		profile.AccountID = account.ID
		return tx.Customers().Create(ctx, profile)
	})
	if err != nil {
		return nil, storeError(err, "customer", nil)
	}

	s.events.publish(ctx, events.New(events.EventAccountCreated, account.ID, actor, s.now(), events.AccountCreatedPayload{
		Email:     account.Email,
		Role:      account.Role,
		ProfileID: profile.ID,
	}))
	return &domain.Customer{Profile: *profile, Account: account.Summary()}, nil
}

// newAccount pre-checks email availability and hashes the password. The
// store's unique index still decides races.
func (s *UserService) newAccount(ctx context.Context, email, password, name string, role domain.Role) (*domain.Account, error) {
	if err := ensureEmailFree(ctx, s.store.Accounts(), email, ""); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &domain.Account{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
	}, nil
}

func ensureEmailFree(ctx context.Context, accounts repository.AccountRepository, email, ownerID string) error {
	existing, err := accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return storeError(err, "account", nil)
	case existing.ID == ownerID:
		return nil
	default:
		return apperrors.NewConflict("email already in use", nil)
	}
}

// GetAccount returns an account by id.
func (s *UserService) GetAccount(ctx context.Context, actor domain.Identity, id string) (*domain.Account, error) {
	if err := s.policy.Authorize(actor, auth.OpReadAccount).Err(); err != nil {
		return nil, err
	}
	account, err := s.store.Accounts().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "account", map[string]any{"account_id": id})
	}
	return account, nil
}

// ListAccounts returns accounts newest first.
func (s *UserService) ListAccounts(ctx context.Context, actor domain.Identity, filter repository.AccountFilter) ([]domain.Account, error) {
	if err := s.policy.Authorize(actor, auth.OpListAccounts).Err(); err != nil {
		return nil, err
	}
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, apperrors.NewInvalidInput("invalid role", map[string]any{"role": *filter.Role})
	}
	accounts, err := s.store.Accounts().List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "account", nil)
	}
	return accounts, nil
}

// UpdateAccount changes the display name and/or email.
func (s *UserService) UpdateAccount(ctx context.Context, actor domain.Identity, id string, in UpdateAccountInput) (*domain.Account, error) {
	if err := s.policy.Authorize(actor, auth.OpUpdateAccount).Err(); err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := requireText("name", *in.Name); err != nil {
			return nil, err
		}
	}
	var email string
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}

	var account *domain.Account
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		account, err = tx.Accounts().GetByIDForUpdate(ctx, id)
		if err != nil {
			return storeError(err, "account", map[string]any{"account_id": id})
		}
		if in.Name == nil && in.Email == nil {
			return nil
		}
		if in.Name != nil {
			account.Name = *in.Name
		}
		if in.Email != nil {
			if err := ensureEmailFree(ctx, tx.Accounts(), email, account.ID); err != nil {
				return err
			}
			account.Email = email
		}
		if err := tx.Accounts().Update(ctx, account); err != nil {
			return storeError(err, "account", map[string]any{"account_id": id})
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "account", map[string]any{"account_id": id})
	}
	return account, nil
}

// UpdateCredentials changes the login email and/or password. It reports
// whether anything changed; a call with nothing to change succeeds untouched.
func (s *UserService) UpdateCredentials(ctx context.Context, actor domain.Identity, id string, in UpdateCredentialsInput) (bool, error) {
	if err := s.policy.Authorize(actor, auth.OpUpdateCredentials).Err(); err != nil {
		return false, err
	}

	var email, hash string
	if in.Email != nil {
		email = normalizeEmail(*in.Email)
	}
	if in.Password != nil && *in.Password != "" {
		var err error
		if hash, err = s.hasher.Hash(*in.Password); err != nil {
			return false, apperrors.NewInternalError(err)
		}
	}

	changed := false
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		account, err := tx.Accounts().GetByIDForUpdate(ctx, id)
		if err != nil {
			return storeError(err, "account", map[string]any{"account_id": id})
		}
		if email != "" && email != account.Email {
			if err := validateEmail(email); err != nil {
				return err
			}
			if err := ensureEmailFree(ctx, tx.Accounts(), email, account.ID); err != nil {
				return err
			}
			account.Email = email
			changed = true
		}
		if hash != "" {
			account.PasswordHash = hash
			changed = true
		}
		if !changed {
			return nil
		}
		if err := tx.Accounts().Update(ctx, account); err != nil {
			return storeError(err, "account", map[string]any{"account_id": id})
		}
		return nil
	})
	if err != nil {
		return false, storeError(err, "account", map[string]any{"account_id": id})
	}
	return changed, nil
}

// DeleteAccount removes an account and whichever profile it has as one unit.
func (s *UserService) DeleteAccount(ctx context.Context, actor domain.Identity, id string) error {
	if err := s.policy.Authorize(actor, auth.OpDeleteAccount).Err(); err != nil {
		return err
	}
	return s.remover.remove(ctx, actor, id, "")
}

// accountRemover deletes an account together with its profile as one unit.
type accountRemover struct {
	store  repository.Store
	events publisher
	now    func() time.Time
}

// remove deletes the account with id. When role is set the account must carry
// it, so profile-specific deletes cannot remove another kind.
func (r accountRemover) remove(ctx context.Context, actor domain.Identity, id string, role domain.Role) error {
	resource := "account"
	switch role {
	case domain.RoleStaff:
		resource = "staff"
	case domain.RoleCustomer:
		resource = "customer"
	}
	details := map[string]any{"account_id": id}

	var deleted *domain.Account
	err := r.store.WithinTx(ctx, func(tx repository.Store) error {
		account, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			return storeError(err, resource, details)
		}
		if role != "" && account.Role != role {
			return apperrors.NewNotFound(resource, details)
		}

		if err := tx.Staff().Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return storeError(err, resource, details)
		}
		if err := tx.Customers().Delete(ctx, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			if errors.Is(err, repository.ErrReferenced) {
				return apperrors.NewConflict("customer still has trips", details)
			}
			return storeError(err, resource, details)
		}
		if err := tx.Accounts().Delete(ctx, id); err != nil {
			return storeError(err, resource, details)
		}
		deleted = account
		return nil
	})
	if err != nil {
		return err
	}

	r.events.publish(ctx, events.New(events.EventAccountDeleted, id, actor, r.now(), events.AccountDeletedPayload{
		Email: deleted.Email,
		Role:  deleted.Role,
	}))
	return nil
}

func validateNewAccount(email, password, name string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return apperrors.NewInvalidInput("password is required", nil)
	}
	return requireText("name", name)
}

func validateCustomerFields(phone string, gender domain.Gender, age int, address string) error {
	if err := requireText("phone", phone); err != nil {
		return err
	}
	if err := validateGender(gender); err != nil {
		return err
	}
	if err := validateAge(age); err != nil {
		return err
	}
	return requireText("address", address)
}

// EnsureAdmin creates the administrator account when no account holds email.
// It runs at startup with no caller identity and is idempotent.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	email = normalizeEmail(email)
	if err := validateNewAccount(email, password, name); err != nil {
		return false, err
	}

	existing, err := s.store.Accounts().GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			return false, apperrors.NewConflict("bootstrap email belongs to a non-admin account", nil)
		}
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, storeError(err, "account", nil)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, apperrors.NewInternalError(err)
	}
	account := &domain.Account{Email: email, Name: name, PasswordHash: hash, Role: domain.RoleAdmin}
	if err := s.store.Accounts().Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return false, nil
		}
		return false, storeError(err, "account", nil)
	}

	s.events.publish(ctx, events.New(events.EventAccountCreated, account.ID, domain.Identity{}, s.now(), events.AccountCreatedPayload{
		Email: account.Email,
		Role:  account.Role,
	}))
	return true, nil
}
