package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Struct validates a request payload against its struct tags and collapses
// the result into a single user-displayable error.
func Struct(payload any) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, describe(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	}
	return field + " is invalid"
}
