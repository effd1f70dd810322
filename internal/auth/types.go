package auth

import "github.com/google/uuid"

// RegisterInput is a new account request.
type RegisterInput struct {
	Username  string `json:"username" validate:"required,min=4,max=20"`
	Password  string `json:"password" validate:"required,min=8"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

// LoginInput carries the credentials of the password grant.
type LoginInput struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	Username string    `json:"username"`
	ID       uuid.UUID `json:"id"`
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"
