package auth

import "time"

// User represents an account row, including the credential hash. The
// hash never leaves this package: responses and principals are built
// from the other fields only.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Bio          *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is an opaque random value bound to one user. A token
// is spendable at most once: redemption revokes it and issues a
// replacement.
type RefreshToken struct {
	ID        int64
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
	IsRevoked bool
}

// TokenPair is the response shape for sign-in and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
