package auth

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/model"
)

const minPasswordLength = 8

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePassword applies the password rules for field and returns a
// *model.ValidationError when they are not met.
func ValidatePassword(field, password string) error {
	v := &model.ValidationError{}
	switch {
	case strings.TrimSpace(password) == "":
		v.Add(field, "This field is required.")
	case len([]rune(password)) < minPasswordLength:
		v.Add(field, "This password is too short. It must contain at least 8 characters.")
	case allDigits(password):
		v.Add(field, "This password is entirely numeric.")
	}
	if len(password) > 72 {
		v.Add(field, "This password is too long.")
	}
	return v.Err()
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsValidationError reports whether err carries field errors.
func IsValidationError(err error) bool {
	var v *model.ValidationError
	return errors.As(err, &v)
}
