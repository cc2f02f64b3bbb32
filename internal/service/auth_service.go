package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tourdesk/internal/auth"
	"github.com/spec-kit/tourdesk/internal/domain"
	"github.com/spec-kit/tourdesk/internal/repository"
	apperrors "github.com/spec-kit/tourdesk/pkg/util/errorutil"
)

// errInvalidCredentials is shared by the unknown-email and wrong-password
// paths so callers cannot tell them apart.
const errInvalidCredentials = "invalid credentials"

// LoginResult carries an issued access token.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	AccountID   string
	Role        domain.Role
}

// AuthService authenticates accounts and issues tokens.
type AuthService struct {
	accounts repository.AccountRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenManager
	throttle LoginThrottle
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps Dependencies) *AuthService {
	deps = deps.withDefaults()
	return &AuthService{
		accounts: deps.Store.Accounts(),
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		throttle: deps.Throttle,
		logger:   deps.Logger,
	}
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if s.throttle != nil && !s.throttle.Allow(ctx, email) {
		return nil, apperrors.NewRateLimited("too many login attempts, try again later")
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyMissing(password)
			return nil, apperrors.NewUnauthorized(errInvalidCredentials)
		}
		return nil, storeError(err, "account", nil)
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		s.logger.Debug("login rejected", zap.String("account_id", account.ID))
		return nil, apperrors.NewUnauthorized(errInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if s.throttle != nil {
		s.throttle.Reset(ctx, email)
	}
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		AccountID:   account.ID,
		Role:        account.Role,
	}, nil
}
