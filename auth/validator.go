package auth

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "relaychat/errors"
)

var validate = validator.New()

type emailField struct {
	Email string `validate:"required,email"`
}

// ValidateEmail checks that a string is a plausible email address.
func ValidateEmail(email string) error {
	if err := validate.Struct(emailField{Email: email}); err != nil {
		return fmt.Errorf("invalid email %q: %w", email, apperrors.ErrValidation)
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password shorter than %d characters: %w",
			MinPasswordLength, apperrors.ErrValidation)
	}
	return nil
}
