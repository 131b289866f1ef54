package middleware

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// Input validation and sanitization utilities

var validate = validator.New()

// ValidateStruct checks `validate` tags and reports the failing fields in one message.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag())
	})
	return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateUserID checks the user id used as blob name prefix
func ValidateUserID(id string) error {
	if id == "" {
		return nil // defaulted later
	}
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("invalid userId format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}
