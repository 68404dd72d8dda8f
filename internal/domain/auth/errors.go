package auth

import "errors"

// ErrEmailExists indicates a duplicate email address.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound indicates no account matches the email.
var ErrUserNotFound = errors.New("user not found")
