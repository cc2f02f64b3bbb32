package auth

import (
	"context"

	"github.com/spec-kit/tourdesk/internal/domain"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// Operation names every action the services expose.
type Operation string

const (
	OpLogin             Operation = "login"
	OpRegisterCustomer  Operation = "register_customer"
	OpCreateStaff       Operation = "create_staff"
	OpCreateCustomer    Operation = "create_customer"
	OpReadAccount       Operation = "read_account"
	OpListAccounts      Operation = "list_accounts"
	OpUpdateAccount     Operation = "update_account"
	OpUpdateCredentials Operation = "update_credentials"
	OpDeleteAccount     Operation = "delete_account"
	OpListStaff         Operation = "list_staff"
	OpReadStaff         Operation = "read_staff"
	OpUpdateStaff       Operation = "update_staff"
	OpDeleteStaff       Operation = "delete_staff"
	OpListCustomers     Operation = "list_customers"
	OpReadCustomer      Operation = "read_customer"
	OpUpdateCustomer    Operation = "update_customer"
	OpDeleteCustomer    Operation = "delete_customer"
	OpCreateTrip        Operation = "create_trip"
	OpListTrips         Operation = "list_trips"
	OpReadTrip          Operation = "read_trip"
	OpUpdateTrip        Operation = "update_trip"
	OpCancelTrip        Operation = "cancel_trip"
	OpDeleteTrip        Operation = "delete_trip"
)

// Rule declares who may invoke an operation.
type Rule struct {
	// Public operations accept anonymous callers.
	Public bool
	// Roles are granted the operation over every resource.
	Roles []domain.Role
	// Owners are granted the operation only over resources they own.
	Owners []domain.Role
}

// DefaultRules is the operation table of the service.
var DefaultRules = map[Operation]Rule{
	OpLogin:             {Public: true},
	OpRegisterCustomer:  {Public: true},
	OpCreateStaff:       {Roles: []domain.Role{domain.RoleAdmin}},
	OpCreateCustomer:    {Roles: []domain.Role{domain.RoleAdmin, domain.RoleStaff}},
	OpReadAccount:       {Roles: []domain.Role{domain.RoleAdmin}},
	OpListAccounts:      {Roles: []domain.Role{domain.RoleAdmin}},
	OpUpdateAccount:     {Roles: []domain.Role{domain.RoleAdmin}},
	OpUpdateCredentials: {Roles: []domain.Role{domain.RoleAdmin}},
	OpDeleteAccount:     {Roles: []domain.Role{domain.RoleAdmin}},
	OpListStaff:         {Roles: []domain.Role{domain.RoleAdmin}},
	OpReadStaff:         {Roles: []domain.Role{domain.RoleAdmin}},
	OpUpdateStaff:       {Roles: []domain.Role{domain.RoleAdmin}},
	OpDeleteStaff:       {Roles: []domain.Role{domain.RoleAdmin}},
	OpListCustomers:     {Roles: []domain.Role{domain.RoleStaff}},
	OpReadCustomer:      {Roles: []domain.Role{domain.RoleStaff}},
	OpUpdateCustomer:    {Roles: []domain.Role{domain.RoleStaff}},
	OpDeleteCustomer:    {Roles: []domain.Role{domain.RoleStaff}},
	OpCreateTrip:        {Roles: []domain.Role{domain.RoleStaff}},
	OpListTrips:         {Roles: []domain.Role{domain.RoleStaff}, Owners: []domain.Role{domain.RoleCustomer}},
	OpReadTrip:          {Roles: []domain.Role{domain.RoleStaff}, Owners: []domain.Role{domain.RoleCustomer}},
	OpUpdateTrip:        {Roles: []domain.Role{domain.RoleStaff}},
	OpCancelTrip:        {Roles: []domain.Role{domain.RoleStaff}},
	OpDeleteTrip:        {Roles: []domain.Role{domain.RoleStaff}},
}

// Effect is the outcome of a policy evaluation.
type Effect int

const (
	Deny Effect = iota
	Allow
)

// Scope narrows an allowed operation. A zero Scope covers every resource.
type Scope struct {
	// OwnerAccountID restricts the operation to resources owned by this account.
	OwnerAccountID string
}

// Narrowed reports whether the scope is restricted to one owner.
func (s Scope) Narrowed() bool {
	return s.OwnerAccountID != ""
}

// Decision is the typed result of Authorize. Code holds the error kind a
// denial maps to.
type Decision struct {
	Effect Effect
	Scope  Scope
	Code   string
	Reason string
}

// Allowed reports whether the decision grants access.
func (d Decision) Allowed() bool {
	return d.Effect == Allow
}

// Err converts a denial into a taxonomy error; it returns nil for Allow.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	if d.Code == apperrors.CodeUnauthorized {
		return apperrors.NewUnauthorized(d.Reason)
	}
	return apperrors.NewForbidden(d.Reason)
}

// OwnerLoader resolves the account id owning the addressed resource.
// It returns the resource's NotFound error when the resource does not exist.
type OwnerLoader func(ctx context.Context) (string, error)

// PolicyEngine evaluates the operation table. It never writes data.
type PolicyEngine struct {
	rules map[Operation]Rule
}

// NewPolicyEngine builds an engine over rules; nil selects DefaultRules.
func NewPolicyEngine(rules map[Operation]Rule) *PolicyEngine {
	if rules == nil {
		rules = DefaultRules
	}
	return &PolicyEngine{rules: rules}
}

// Authorize evaluates role membership for op. Owner grants come back as an
// Allow with a narrowed Scope the caller must apply to its query.
func (p *PolicyEngine) Authorize(identity domain.Identity, op Operation) Decision {
	rule, ok := p.rules[op]
	if !ok {
		return deny(apperrors.CodeForbidden, "operation not permitted")
	}
	if rule.Public {
		return Decision{Effect: Allow}
	}
	if identity.Anonymous() {
		return deny(apperrors.CodeUnauthorized, "authentication required")
	}
	if hasRole(rule.Roles, identity.Role) {
		return Decision{Effect: Allow}
	}
	if hasRole(rule.Owners, identity.Role) {
		return Decision{Effect: Allow, Scope: Scope{OwnerAccountID: identity.SubjectID}}
	}
	return deny(apperrors.CodeForbidden, "insufficient role")
}

// AuthorizeResource evaluates op against one addressed resource. Existence is
// confirmed through load before ownership is compared, so a missing resource
// yields its NotFound error and a foreign one yields FORBIDDEN.
func (p *PolicyEngine) AuthorizeResource(ctx context.Context, identity domain.Identity, op Operation, load OwnerLoader) (Decision, error) {
	decision := p.Authorize(identity, op)
	if !decision.Allowed() || !decision.Scope.Narrowed() {
		return decision, nil
	}
	owner, err := load(ctx)
	if err != nil {
		return Decision{}, err
	}
	if owner != decision.Scope.OwnerAccountID {
		return deny(apperrors.CodeForbidden, "access denied"), nil
	}
	return decision, nil
}

func deny(code, reason string) Decision {
	return Decision{Effect: Deny, Code: code, Reason: reason}
}

func hasRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
