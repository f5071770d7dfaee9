package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/erp/paysync/internal/domain/identity"
	"github.com/erp/paysync/internal/domain/shared"
	"github.com/erp/paysync/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError("UNAUTHORIZED", "Invalid username or password")

// AuthService issues and validates API tokens. A token is valid only while
// its signature checks out and its id is still recorded as issued.
type AuthService struct {
	credentialRepo identity.CredentialRepository
	tokenRepo      identity.IssuedTokenRepository
	jwtService     *auth.JWTService
	logger         *zap.Logger
	now            func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	credentialRepo identity.CredentialRepository,
	tokenRepo identity.IssuedTokenRepository,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		credentialRepo: credentialRepo,
		tokenRepo:      tokenRepo,
		jwtService:     jwtService,
		logger:         logger,
		now:            time.Now,
	}
}

// IssueToken checks the credentials and records a new token
func (s *AuthService) IssueToken(ctx context.Context, input IssueTokenInput) (*TokenResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "user and pass are required")
	}

	credential, err := s.credentialRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Token requested for unknown user", zap.String("username", username))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !credential.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", username))
		return nil, errInvalidCredentials
	}

	issued, err := s.jwtService.GenerateToken(credential.Username)
	if err != nil {
		s.logger.Error("Failed to generate token", zap.Error(err))
		return nil, err
	}

	record := &identity.IssuedToken{
		ID:        issued.ID,
		Token:     issued.Token,
		Username:  issued.Username,
		ExpiresAt: issued.ExpiresAt.UTC(),
		CreatedAt: issued.IssuedAt.UTC(),
	}
	if err := s.tokenRepo.Save(ctx, record); err != nil {
		s.logger.Error("Failed to record issued token", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Token issued",
		zap.String("username", issued.Username),
		zap.Time("expires_at", issued.ExpiresAt))

	return &TokenResult{
		Token:     issued.Token,
		Username:  issued.Username,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Validate resolves a token to its principal
func (s *AuthService) Validate(ctx context.Context, token string) (*Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, shared.ErrUnauthorized
	}

	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, shared.ErrTokenExpired
		}
		return nil, shared.ErrUnauthorized
	}

	record, err := s.tokenRepo.FindByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}
	if record.Username != claims.Username {
		return nil, shared.ErrUnauthorized
	}
	if record.IsExpired(s.now()) {
		return nil, shared.ErrTokenExpired
	}

	return &Principal{Username: record.Username, TokenID: record.ID}, nil
}

// EnsureDefaultUser creates the configured user when no user exists yet.
// It reports whether a user was created.
func (s *AuthService) EnsureDefaultUser(ctx context.Context, username, password string) (bool, error) {
	count, err := s.credentialRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	credential, err := identity.NewCredential(username, password)
	if err != nil {
		return false, err
	}
	if err := s.credentialRepo.Create(ctx, credential); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("Default API user created", zap.String("username", credential.Username))
	return true, nil
}

// PurgeExpiredTokens deletes issued tokens past their expiry
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.tokenRepo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("Expired tokens purged", zap.Int64("count", n))
	}
	return n, nil
}
