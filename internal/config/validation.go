package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance.
var validate *validator.Validate //nolint:gochecknoglobals

//nolint:gochecknoinits
func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags. Any failure is a
// configuration error and aborts the entire run.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]

		return fmt.Errorf("%w: %s failed on '%s' (value: %v)",
			ErrInvalidConfiguration, e.Namespace(), e.Tag(), e.Value())
	}

	return err
}
