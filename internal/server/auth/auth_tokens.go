package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func NewAccessToken(subject string, scopes []Scope, config *Config) (string, error) {
	var expiryTime *jwt.NumericDate
	if config.AccessTokenExpiry > 0 {
		expiryTime = jwt.NewNumericDate(time.Now().Add(config.AccessTokenExpiry))
	}

	scopeStrings := make([]string, len(scopes))
	for i, s := range scopes {
		scopeStrings[i] = s.String()
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			Issuer:    config.TokenIssuer,
			ExpiresAt: expiryTime,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Type:   AccessToken,
		Scopes: scopeStrings,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AccessTokenSecret))
}
