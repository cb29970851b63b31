package services

import (
	"context"
	"errors"
	"fmt"

	"join-project/backend/config"
	"join-project/backend/logging"
	"join-project/backend/models"
	"join-project/backend/utils"

	"github.com/sony/gobreaker"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
)

// TokenPair is one issued access/refresh pair. Handlers move it into
// cookies; it never appears in a response body.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles credential checks and the token lifecycle. Refresh
// tokens are revocable through the blacklist; blacklist writes on logout go
// through a circuit breaker because logout must stay best-effort even when
// the store misbehaves.
type AuthService struct {
	users     *UserService
	blacklist TokenBlacklist
	breaker   *gobreaker.CircuitBreaker
	cfg       *config.Config
}

func NewAuthService(users *UserService, blacklist TokenBlacklist, breaker *gobreaker.CircuitBreaker, cfg *config.Config) *AuthService {
	return &AuthService{
		users:     users,
		blacklist: blacklist,
		breaker:   breaker,
		cfg:       cfg,
	}
}

// Login resolves the account by email and checks the password. The two
// failure modes stay distinct: ErrUserNotFound for an unknown email,
// ErrInvalidCredentials for a bad password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// IssueTokens signs a fresh access/refresh pair for the user.
func (s *AuthService) IssueTokens(user *models.User) (TokenPair, error) {
	secret := []byte(s.cfg.JWTSecret)

	access, err := utils.GenerateAccessToken(secret, user.ID.Hex(), user.Username, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign access token: %v", err)
	}

	refresh, _, err := utils.GenerateRefreshToken(secret, user.ID.Hex(), user.Username, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to sign refresh token: %v", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token against signature, expiry and the
// blacklist, then mints a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := utils.ParseRefreshToken([]byte(s.cfg.JWTSecret), refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("failed to check token blacklist: %v", err)
	}
	if revoked {
		return "", ErrInvalidRefreshToken
	}

	access, err := utils.GenerateAccessToken([]byte(s.cfg.JWTSecret), claims.UserID, claims.Username, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %v", err)
	}
	return access, nil
}

// Logout blacklists the presented refresh token if it is still valid. Every
// error is swallowed: logout never fails visibly, the caller clears the
// cookies regardless.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	claims, err := utils.ParseRefreshToken([]byte(s.cfg.JWTSecret), refreshToken)
	if err != nil {
		return
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return nil, s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: TOKEN_BLACKLIST_SKIPPED, Description: Could not blacklist refresh token on logout: %v", err)
	}
}
