package auth

import "time"

// Config drives authentication behavior.
type Config struct {
	SessionTTL        time.Duration
	MinPasswordLength int
}

// Identity is an account held by the identity provider.
type Identity struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Claims are extracted from a verified token.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// SignUpRequest captures the registration form.
type SignUpRequest struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	DisplayName string `json:"display_name" form:"display_name"`
}

// SignInRequest captures login details.
type SignInRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// ChangePasswordRequest carries the new password for the signed-in account.
type ChangePasswordRequest struct {
	Email       string `json:"email" form:"email"`
	NewPassword string `json:"new_password" form:"new_password"`
}

// SessionResult is returned when a session is opened.
type SessionResult struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token,omitempty"`
	Email     string `json:"email"`
}
