package tenant

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/tenant"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func commandValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Use JSON tag names for field names in errors
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("subdomain", func(fl validator.FieldLevel) bool {
			_, err := tenant.NormalizeSubdomain(fl.Field().String())
			return err == nil
		})
		validate = v
	})
	return validate
}

// validateStruct runs the struct tags and collects every failure into a
// single *shared.ValidationError
func validateStruct(cmd any) error {
	err := commandValidator().Struct(cmd)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	result := shared.NewValidationError()
	for _, fe := range fieldErrors {
		result.Add(fe.Field(), validationMessage(fe))
	}
	return result
}

// validationMessage returns a human-readable validation message
func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "subdomain":
		return "Must be 3-63 lowercase letters, numbers or hyphens, not starting or ending with a hyphen"
	default:
		return "Invalid value"
	}
}
