package service

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MinCredentialLength = 8
	MaxCredentialLength = 128
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateStruct runs the struct tags and turns the first failure into a
// ValidationError keyed by the json field name.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}

	fe := verrs[0]
	return &ValidationError{Field: fieldName(fe.Field()), Reason: reasonFor(fe)}
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email,max=254"); err != nil {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	return nil
}

func validateCredential(credential string) error {
	n := utf8.RuneCountInString(credential)
	switch {
	case n < MinCredentialLength:
		return &ValidationError{Field: "credential", Reason: "must be at least 8 characters"}
	case n > MaxCredentialLength:
		return &ValidationError{Field: "credential", Reason: "must be at most 128 characters"}
	}
	return nil
}

func fieldName(goName string) string {
	switch goName {
	case "ScopeID":
		return "scope_id"
	case "InvitedBy":
		return "invited_by"
	}
	return strings.ToLower(goName)
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "len":
		return "must be " + fe.Param() + " characters"
	case "numeric":
		return "must contain only digits"
	case "max":
		return "is too long"
	}
	return "is invalid"
}
