package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type AuthTokenType string

const (
	AccessToken AuthTokenType = "access"
)

type Claims struct {
	Type   AuthTokenType `json:"type"`
	Scopes []string      `json:"scopes"`
	jwt.RegisteredClaims
}

func ParseClaims(tokenString, jwtSecret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(jwtSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// GrantedScopes returns the parsed scope claims. Tokens are only minted with
// valid scope strings, so a parse failure here means a tampered token.
func (c *Claims) GrantedScopes() ([]Scope, error) {
	return ParseScopes(c.Scopes)
}
