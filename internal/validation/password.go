// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 128
	NameMinLength     = 3
	NameMaxLength     = 30
	EmailMaxLength    = 254
)

var (
	nameRegex    = regexp.MustCompile(`^[\p{L}\p{N}_\-]+$`)
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?~` + "`" + `]`)
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	length := utf8.RuneCountInString(password)
	if length < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters long", PasswordMinLength)
	}
	if length > PasswordMaxLength {
		return fmt.Errorf("password must not exceed %d characters", PasswordMaxLength)
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower {
		return errors.New("password must contain both uppercase and lowercase letters")
	}
	if !hasDigit {
		return errors.New("password must contain at least one digit")
	}
	if !specialRegex.MatchString(password) {
		return errors.New("password must contain at least one special character (!@#$%^&*)")
	}

	return nil
}

// ValidateName checks a display name: 3 to 30 letters, digits, underscores or hyphens.
func ValidateName(name string) error {
	length := utf8.RuneCountInString(name)
	if length < NameMinLength {
		return fmt.Errorf("name must be at least %d characters long", NameMinLength)
	}
	if length > NameMaxLength {
		return fmt.Errorf("name must not exceed %d characters", NameMaxLength)
	}
	if !nameRegex.MatchString(name) {
		return errors.New("name can only contain letters, numbers, underscores, and hyphens")
	}
	if strings.HasPrefix(name, "_") || strings.HasPrefix(name, "-") ||
		strings.HasSuffix(name, "_") || strings.HasSuffix(name, "-") {
		return errors.New("name cannot start or end with underscore or hyphen")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > EmailMaxLength {
		return fmt.Errorf("email must not exceed %d characters", EmailMaxLength)
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}
