// Package validation checks typed configuration values with struct tags and
// reports failures as ConfigErrors located in the Config Tree.
//
// Fields name their config key with a `cfg` tag, which is also what appears
// in error messages:
//
//	MaxReplays int `cfg:"max replays" validate:"min=1"`
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vk/palila/internal/config"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("cfg"), ",", 2)[0]
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

// Struct validates s and returns one ConfigError per failing field, joined.
// sec locates the errors; it may be nil for values not backed by a section.
func Struct(sec *config.Section, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := formatFieldError(fe)
		if sec == nil {
			errs = append(errs, fmt.Errorf("%s", msg))
			continue
		}
		errs = append(errs, sec.Errorf(fe.Field(), "%s", msg))
	}
	return errors.Join(errs...)
}

// formatFieldError formats a single field validation error.
func formatFieldError(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "min", "gte":
		return fmt.Sprintf("%q must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("%q must be at most %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%q must be greater than %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%q must be one of: %s", field, e.Param())
	case "ltfield":
		return fmt.Sprintf("%q must be less than %q", field, fieldKey(e))
	case "dive":
		return fmt.Sprintf("%q contains invalid values", field)
	default:
		return fmt.Sprintf("%q is invalid (%s)", field, e.Tag())
	}
}

// fieldKey maps the Go field named by a cross-field tag to its config key.
// Cross-field tags are only used between single-word keys.
func fieldKey(e validator.FieldError) string {
	return strings.ToLower(e.Param())
}
