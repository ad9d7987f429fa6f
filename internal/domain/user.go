package domain

import "time"

// MinAge is the minimum age accepted at registration.
const MinAge = 13

type User struct {
	UserID       string `json:"id" dynamodbav:"user_id"`
	Email        string `json:"email" dynamodbav:"email"`
	PasswordHash string `json:"-" dynamodbav:"password_hash"`
	FirstName    string `json:"first_name" dynamodbav:"first_name"`
	LastName     string `json:"last_name" dynamodbav:"last_name"`
	Age          int    `json:"age" dynamodbav:"age"`
	// AvatarURL is a presigned link minted on read; AvatarKey is the S3
	// object the link points at.
	AvatarURL string `json:"avatar_url,omitempty" dynamodbav:"avatar_url"`
	AvatarKey string `json:"-" dynamodbav:"avatar_key,omitempty"`

	// Pending password-reset state. Both fields are absent unless a reset
	// was requested and has not yet been redeemed. Expiry is Unix seconds so
	// the store can compare it inside a condition expression.
	ResetToken          *string `json:"-" dynamodbav:"reset_token,omitempty"`
	ResetTokenExpiresAt *int64  `json:"-" dynamodbav:"reset_token_expires_at,omitempty"`

	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// ResetTokenValid reports whether a reset token is pending and its expiry is
// strictly after the given instant. An expired token is indistinguishable
// from no token at all.
func (u *User) ResetTokenValid(at time.Time) bool {
	return u.ResetToken != nil && u.ResetTokenExpiresAt != nil && *u.ResetTokenExpiresAt > at.Unix()
}

type CreateUserRequest struct {
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Age             int    `json:"age" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type UpdateUserRequest struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	Age             *int    `json:"age"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}
