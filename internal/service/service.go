package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/events"
	"github.com/spec-kit/tourdesk/internal/repository"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// LoginThrottle limits repeated login attempts per email.
type LoginThrottle interface {
	Allow(ctx context.Context, email string) bool
	Reset(ctx context.Context, email string)
}

// Dependencies bundles the collaborators shared by the domain services.
type Dependencies struct {
	Store      repository.Store
	Policy     *auth.PolicyEngine
	Hasher     *auth.PasswordHasher
	Tokens     *auth.TokenManager
	Dispatcher events.Dispatcher
	Throttle   LoginThrottle
	Logger     *zap.Logger
	Now        func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Policy == nil {
		d.Policy = auth.NewPolicyEngine(nil)
	}
	if d.Dispatcher == nil {
		d.Dispatcher = events.NewInMemoryDispatcher()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	return d
}

func (d Dependencies) publisher() publisher {
	return publisher{dispatcher: d.Dispatcher, logger: d.Logger}
}

func (d Dependencies) remover() accountRemover {
	return accountRemover{store: d.Store, events: d.publisher(), now: d.Now}
}

// publisher emits events after a unit of work has committed. A failing
// handler is logged and never reaches the caller.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("subject_id", event.SubjectID),
			zap.Error(err))
	}
}

// storeError converts repository sentinels into taxonomy errors. resource and
// details describe the addressed row.
func storeError(err error, resource string, details map[string]any) error {
	var domainErr *apperrors.DomainError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperrors.NewConflict("email already in use", nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(fmt.Sprintf("%s already exists", resource), details)
	case errors.Is(err, repository.ErrReferenced):
		return apperrors.NewConflict(fmt.Sprintf("%s is still referenced", resource), details)
	default:
		return apperrors.NewInternalError(err)
	}
}

// accountSummary is the second read of a profile listing.
func accountSummary(ctx context.Context, accounts repository.AccountRepository, accountID string) (domain.AccountSummary, error) {
	account, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		return domain.AccountSummary{}, storeError(err, "account", map[string]any{"account_id": accountID})
	}
	return account.Summary(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.NewInvalidInput("invalid email address", map[string]any{"email": email})
	}
	return nil
}

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewInvalidInput(fmt.Sprintf("%s is required", field), map[string]any{"field": field})
	}
	return nil
}

func validateAge(age int) error {
	if age < 0 {
		return apperrors.NewInvalidInput("age must not be negative", map[string]any{"age": age})
	}
	return nil
}

func validateGender(gender domain.Gender) error {
	if !gender.Valid() {
		return apperrors.NewInvalidInput("invalid gender", map[string]any{"gender": gender})
	}
	return nil
}
