// Package validation wraps go-playground/validator so DTO constraint failures
// become validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "refdata/pkg/domain-errors"
)

// embeddedPrefix marks promoted struct segments so they can be dropped from
// reported field paths.
const embeddedPrefix = "~"

// Validator checks struct tags on inbound payloads.
type Validator struct {
	validate *validator.Validate
}

// New builds a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if field.Anonymous && name == "" {
			return embeddedPrefix + field.Name
		}
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns a CodeValidation error with one message per
// failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "request body is required")
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return dErrors.Validation("invalid request", fields)
}

// fieldPath drops the top-level struct name and embedded struct segments so
// nested fields read like JSON paths ("parent.code").
func fieldPath(fe validator.FieldError) string {
	segments := strings.Split(fe.Namespace(), ".")
	if len(segments) <= 1 {
		return fe.Field()
	}
	path := make([]string, 0, len(segments)-1)
	for _, seg := range segments[1:] {
		if strings.HasPrefix(seg, embeddedPrefix) {
			continue
		}
		path = append(path, seg)
	}
	return strings.Join(path, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "alpha":
		return "must contain letters only"
	case "numeric":
		return "must contain digits only"
	case "uppercase":
		return "must be upper case"
	case "alphanum":
		return "must contain letters and digits only"
	case "bcp47_language_tag":
		return "must be a BCP 47 language tag"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
