package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names so messages match what the client sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks the validate tags of a request message and returns
// a ValidationError listing every failed field.
func validateRequest(msg any) error {
	err := validate.Struct(msg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		param := fe.Param()

		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min":
			if fe.Kind() == reflect.Slice {
				msgs = append(msgs, field+" must contain at least "+param+" item(s)")
			} else {
				msgs = append(msgs, field+" must be at least "+param+" characters")
			}
		case "len":
			msgs = append(msgs, field+" must be exactly "+param+" characters")
		case "gt":
			msgs = append(msgs, field+" must be greater than "+param)
		case "gte":
			msgs = append(msgs, field+" must be at least "+param)
		case "lte":
			msgs = append(msgs, field+" must be at most "+param)
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+strings.ReplaceAll(param, " ", ", "))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return invalid(strings.Join(msgs, ", "))
}
