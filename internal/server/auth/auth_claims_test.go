package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:           true,
		TokenIssuer:       "hoard-test",
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Minute,
	}
}

func TestParseClaims_ValidToken(t *testing.T) {
	cfg := testConfig()
	token, err := NewAccessToken("alice", []Scope{{Name: "contacts", Mode: ModeReadWrite}}, cfg)
	require.NoError(t, err)

	claims, err := ParseClaims(token, cfg.AccessTokenSecret)
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, AccessToken, claims.Type)
	assert.Equal(t, "hoard-test", claims.Issuer)
	assert.Equal(t, []string{"contacts:rw"}, claims.Scopes)

	scopes, err := claims.GrantedScopes()
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Equal(t, "contacts", scopes[0].Name)
	assert.True(t, scopes[0].CanWrite())
}

func TestParseClaims_InvalidToken(t *testing.T) {
	_, err := ParseClaims("invalid.token.string", "test-secret")
	assert.Error(t, err)
}

func TestParseClaims_WrongSecret(t *testing.T) {
	cfg := testConfig()
	token, err := NewAccessToken("alice", nil, cfg)
	require.NoError(t, err)

	_, err = ParseClaims(token, "wrong-secret")
	assert.Error(t, err)
}

func TestParseClaims_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenExpiry = -time.Minute
	token, err := NewAccessToken("alice", nil, cfg)
	require.NoError(t, err)

	_, err = ParseClaims(token, cfg.AccessTokenSecret)
	assert.Error(t, err)
}
