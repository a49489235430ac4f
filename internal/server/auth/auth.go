package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hoardhq/hoard/internal/server/accounts"
)

type AuthService struct {
	config   *Config
	accounts *accounts.AccountService
}

func NewAuthService(config *Config, accounts *accounts.AccountService) *AuthService {
	return &AuthService{
		config:   config,
		accounts: accounts,
	}
}

func (s *AuthService) IsEnabled() bool {
	return s.config.Enabled
}

// IssueToken exchanges a username/secret pair for an access token restricted
// to the requested scopes.
func (s *AuthService) IssueToken(ctx context.Context, username, secret string, scopes []string) (string, error) {
	if !s.IsEnabled() {
		slog.Debug("auth is disabled, will not issue tokens")
		return "", nil
	}

	parsed, err := ParseScopes(scopes)
	if err != nil {
		return "", err
	}
	if len(parsed) == 0 {
		return "", fmt.Errorf("%w: at least one scope is required", ErrInvalidScope)
	}

	if err := s.accounts.Verify(ctx, username, secret); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	token, err := NewAccessToken(username, parsed, s.config)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return token, nil
}

func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	claims, err := ParseClaims(accessToken, s.config.AccessTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Type != AccessToken {
		return nil, fmt.Errorf("%w: wrong token type got %q", ErrInvalidToken, claims.Type)
	}

	return claims, nil
}
