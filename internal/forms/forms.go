// Package forms holds the login and registration form view-models. A form
// owns its field values and messages for as long as it is mounted; the web
// layer mounts one per request.
package forms

import (
	"context"
	"errors"
	"fmt"

	"teleecho/internal/models"
)

var (
	// ErrSubmitInProgress is returned when Submit is called while an earlier
	// submission of the same form is still waiting for the service.
	ErrSubmitInProgress = errors.New("submission already in progress")
	ErrUnknownField     = errors.New("unknown field")
)

// ValidationError reports a required field left empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// AuthService is the external user service.
type AuthService interface {
	Login(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, profile models.RegistrationProfile) error
}

// Navigator performs client-side route changes.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) {
	f(route)
}

type field struct {
	name     string
	value    *string
	required bool
}

// set writes value into the named field.
func set(fields []field, name, value string) error {
	for _, f := range fields {
		if f.name == name {
			*f.value = value
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// validate returns the first required field that is empty.
func validate(fields []field) error {
	for _, f := range fields {
		if f.required && *f.value == "" {
			return &ValidationError{Field: f.name}
		}
	}
	return nil
}
