package account

// SignupRequest registers a new account. The invite code is checked against
// the server's configured code when one is set.
type SignupRequest struct {
	Username   string `json:"username" binding:"required"`
	InviteCode string `json:"inviteCode"`
}

// SignupResponse hands out the account secret. It is shown exactly once.
type SignupResponse struct {
	Username  string `json:"username"`
	Secret    string `json:"secret"`
	CreatedAt string `json:"createdAt"`
}
