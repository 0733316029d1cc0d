// Package auth covers password hashing, registration validation and the
// JWT session tokens that bind a request to an account.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 8

var (
	ErrBlankUsername     = errors.New("username field cannot be blank")
	ErrBlankPassword     = errors.New("password field cannot be blank")
	ErrBlankConfirmation = errors.New("confirm password field cannot be blank")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters long")
	ErrPasswordMismatch  = errors.New("passwords do not match")
)

// ValidateRegistration checks the registration form fields. It performs
// no I/O; duplicate-username detection happens at the store.
func ValidateRegistration(username, password, confirmation string) error {
	if username == "" {
		return ErrBlankUsername
	}
	if password == "" {
		return ErrBlankPassword
	}
	if confirmation == "" {
		return ErrBlankConfirmation
	}
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}
	return nil
}

// HashPassword returns a bcrypt hash of the password. The plaintext is
// never stored.
func HashPassword(password string) (string, error) {
	// bcrypt ignores input beyond 72 bytes
	passwordBytes := []byte(password)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(passwordBytes, 10)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	passwordBytes := []byte(password)
	if len(passwordBytes) > 72 {
		passwordBytes = passwordBytes[:72]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), passwordBytes) == nil
}
