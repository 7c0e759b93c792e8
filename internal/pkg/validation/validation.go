// Package validation wraps go-playground/validator with human-readable error messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report field names the way they appear in config files
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"yaml", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// FieldError is a single validation failure.
type FieldError struct {
	FieldPath string // Dot-notation path without the root struct name (e.g. "transport.ssh.host")
	Message   string
}

// Errors is a collection of validation failures.
type Errors []FieldError

func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("%s: %s", ve[0].FieldPath, ve[0].Message)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):", len(ve)))
	for i, e := range ve {
		sb.WriteString(fmt.Sprintf("\n  %d. %s: %s", i+1, e.FieldPath, e.Message))
	}
	return sb.String()
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{
			FieldPath: fieldPath(fe.Namespace()),
			Message:   message(fe),
		})
	}
	return out
}

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "excludesall":
		return "must not contain commas"
	case "hostname_port":
		return "must be in format 'host:port'"
	case "required_if":
		return fmt.Sprintf("field is required when %s", e.Param())
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}
