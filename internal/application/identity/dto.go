package identity

import "time"

// IssueTokenInput contains the credentials presented to the token endpoint
type IssueTokenInput struct {
	Username string
	Password string
}

// TokenResult is a token handed back to the caller
type TokenResult struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Principal is the caller identified by a valid token
type Principal struct {
	Username string
	TokenID  string
}
