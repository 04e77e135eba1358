package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Bounds on the operator password. bcrypt silently truncates input at
// 72 bytes, so overlong passwords are refused rather than weakened.
var (
	ErrPasswordEmpty    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 characters")
)

// HashPassword bcrypt-hashes a plaintext password. The result is what
// goes into the OPERATOR_PASSWORD_HASH secret.
func HashPassword(password string) (string, error) {
	switch {
	case len(password) == 0:
		return "", ErrPasswordEmpty
	case len(password) < 8:
		return "", ErrPasswordTooShort
	case len(password) > 72:
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the login attempt matches the stored
// operator hash.
func VerifyPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
