package serverutils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"feature-store-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateRequest runs struct validation and turns failures into a
// VALIDATION_ERROR carrying one detail per field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.BadRequest("Invalid request")
	}

	details := make([]string, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = describeFieldError(fe)
	}
	return apperror.Validation("Request validation failed", details...)
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	// Drop the struct name prefix: "CreateFeatureValueRequest.entity_id" -> "entity_id".
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	}
	return fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag())
}
