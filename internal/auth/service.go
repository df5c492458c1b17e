package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
)

// ErrInvalidCredentials is returned for every sign-in failure. An
// unknown email and a wrong password are indistinguishable by design.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)

// ErrInvalidRefreshToken covers missing, revoked and expired refresh
// tokens alike.
var ErrInvalidRefreshToken = fmt.Errorf("%w: invalid refresh token", httpx.ErrUnauthorized)

// Service wraps authentication business rules.
type Service struct {
	repo       Repository
	tokens     *TokenManager
	throttle   *LoginThrottle
	logger     *slog.Logger
	bcryptCost int
}

// NewService constructs a new Service. throttle may be nil.
func NewService(repo Repository, tokens *TokenManager, throttle *LoginThrottle, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, tokens: tokens, throttle: throttle, logger: logger, bcryptCost: bcryptCost}
}

// Register creates a user with a hashed credential and the default
// role.
func (s *Service) Register(ctx context.Context, name, email, password string, bio *string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, name, email, string(hash), bio)
}

// SignIn validates email/password credentials and issues a token
// pair.
func (s *Service) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	if !s.throttle.Allow(ctx, email) {
		return nil, fmt.Errorf("%w: try again later", httpx.ErrRateLimited)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			s.throttle.RecordFailure(ctx, email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.throttle.RecordFailure(ctx, email)
		return nil, ErrInvalidCredentials
	}

	s.throttle.Reset(ctx, email)
	return s.generateTokens(ctx, user)
}

// Refresh rotates the presented refresh token: the old token is
// revoked and a new pair issued, atomically per token. A concurrent
// redemption of the same value leaves exactly one winner.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := s.repo.RedeemRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	return s.generateTokens(ctx, user)
}

// Revoke marks the refresh token revoked. Unknown tokens are ignored:
// revocation is idempotent and leaks nothing.
func (s *Service) Revoke(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, refreshToken)
}

// PurgeExpiredTokens removes refresh tokens that can never be
// redeemed again. Used by the maintenance worker.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repo.PurgeRefreshTokens(ctx, time.Now())
}

func (s *Service) generateTokens(ctx context.Context, user *User) (*TokenPair, error) {
	accessToken, err := s.tokens.Sign(user.ID, user.Name)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.tokens.RefreshTTL())
	if err := s.repo.CreateRefreshToken(ctx, refreshToken, user.ID, expiresAt); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.Debug("issued token pair", slog.Int64("user_id", user.ID))
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
