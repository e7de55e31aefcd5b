package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/tci-social/backend/internal/models"
)

// priceRegex accepts a non-negative decimal with at most two fractional digits.
var priceRegex = regexp.MustCompile(`^\d{1,8}(\.\d{1,2})?$`)

// ValidationError represents a single field failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(msgs, "; ")
}

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report form/json names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"form", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})

	v := &Validator{validate: validate}
	v.registerRules()
	return v
}

func (v *Validator) registerRules() {
	v.validate.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		return priceRegex.MatchString(fl.Field().String())
	})
	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		switch models.UserRole(fl.Field().String()) {
		case models.RoleStudent, models.RoleInnovator:
			return true
		}
		return false
	})
}

// Validate checks s against its validate tags. It returns nil when s is valid.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

func ToValidationErrors(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Value:   safeValue(fe),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "eqfield":
		return "does not match"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "price":
		return "must be a non-negative amount with at most two decimals"
	case "user_role":
		return "must be student or innovator"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// safeValue keeps secrets out of error payloads.
func safeValue(fe validator.FieldError) interface{} {
	name := strings.ToLower(fe.Field())
	if strings.Contains(name, "password") {
		return nil
	}
	return fe.Value()
}
