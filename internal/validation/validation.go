// Package validation checks request payloads against their struct tags and
// turns the first failing rule into a classified validation error.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Rules maps "Field.tag" (for example "Title.required") to the error returned
// when that rule fails. A "Field" key without a tag matches every rule on the
// field.
type Rules map[string]error

// Struct validates s. The first failing rule is looked up in rules; unmapped
// failures become a generic validation error naming the field.
func Struct(s any, rules Rules) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validationf("invalid request: %v", err)
	}

	fe := verrs[0]
	if mapped, ok := rules[fe.Field()+"."+fe.Tag()]; ok {
		return mapped
	}
	if mapped, ok := rules[fe.Field()]; ok {
		return mapped
	}
	return apperr.Validation(describe(fe))
}

// Var validates a single value against a tag expression such as "uuid".
func Var(v any, tag string, onErr error) error {
	if err := instance().Var(v, tag); err != nil {
		return onErr
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid":
		return field + " must be a valid UUID"
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}

func toSnake(s string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
			prevLower = false
		} else {
			prevLower = true
		}
		b.WriteRune(r)
	}
	return b.String()
}
