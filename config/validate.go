package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError reports the first invalid field of a struct.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Validate checks a database descriptor before any connection attempt.
func (d Database) Validate() error {
	return check(d)
}

// Validate checks the AI section.
func (c AIConfig) Validate() error {
	return check(c)
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	return ValidationError{
		Field:   strings.ToLower(e.Field()),
		Message: describe(e),
	}
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_unless":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(e.Param(), " ", ", "))
	case "gte", "max":
		return fmt.Sprintf("is out of range (%v)", e.Value())
	default:
		return fmt.Sprintf("failed '%s' validation", e.Tag())
	}
}
