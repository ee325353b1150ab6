package service

import (
	"context"
	"time"

	apperrors "github.com/opsatya/cinemaSync/internal/pkg/errors"
	"github.com/opsatya/cinemaSync/internal/pkg/utils"
	"go.uber.org/zap"
)

// Identity is the canonical user identity, constructed exactly once at the
// authentication boundary. Everything downstream compares Identity.UserID
// directly; identity fields supplied inside message payloads are ignored.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// IdentityVerifier validates an external credential (e.g. a Firebase ID
// token) and resolves it to an identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// AuthService exchanges a verified identity for a backend JWT
type AuthService struct {
	jwtManager *utils.JWTManager
	verifier   IdentityVerifier // nil disables external verification (development)
	logger     *zap.Logger
}

func NewAuthService(jwtManager *utils.JWTManager, verifier IdentityVerifier, logger *zap.Logger) *AuthService {
	return &AuthService{
		jwtManager: jwtManager,
		verifier:   verifier,
		logger:     logger,
	}
}

// ExchangeInput carries the claimed identity and, when available, the
// external credential backing it.
type ExchangeInput struct {
	UserID     string
	Name       string
	Email      string
	Credential string
}

// ExchangeResult is the issued backend token
type ExchangeResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

// Exchange issues a backend JWT. When a verifier is configured the external
// credential is validated and its resolved identity wins over the claimed
// fields; without one the claimed identity is trusted as-is.
func (s *AuthService) Exchange(ctx context.Context, input *ExchangeInput) (*ExchangeResult, error) {
	identity := &Identity{
		UserID: input.UserID,
		Name:   input.Name,
		Email:  input.Email,
	}

	if s.verifier != nil {
		if input.Credential == "" {
			return nil, apperrors.ErrUnauthorized
		}
		verified, err := s.verifier.Verify(ctx, input.Credential)
		if err != nil {
			s.logger.Warn("Identity verification failed", zap.Error(err))
			return nil, apperrors.ErrInvalidToken
		}
		identity = verified
	}

	if identity.UserID == "" {
		return nil, apperrors.New(400, "user_id is required")
	}

	token, expiresAt, err := s.jwtManager.Generate(identity.UserID, identity.Name, identity.Email)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Error(err))
		return nil, apperrors.ErrInternal
	}

	s.logger.Info("Issued backend token", zap.String("user_id", identity.UserID))
	return &ExchangeResult{Token: token, ExpiresAt: expiresAt, Identity: *identity}, nil
}
