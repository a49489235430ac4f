package auth

// TokenRequest exchanges account credentials for an access token restricted to
// the requested scopes.
type TokenRequest struct {
	Username string   `json:"username" binding:"required"`
	Secret   string   `json:"secret" binding:"required"`
	Scopes   []string `json:"scopes" binding:"required"`
}

// TokenResponse carries the minted access token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}
