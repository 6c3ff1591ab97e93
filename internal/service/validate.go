package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pkordes/atag/internal/domain"
)

// validate is the shared validator for request structs. Field names in
// messages come from the json tag so they match what API clients sent.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}()

// validateStruct runs the validator and converts the first failure into an
// error wrapping domain.ErrValidation.
func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	e := fieldErrs[0]
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	case "max":
		return fmt.Errorf("%w: %s exceeds maximum length of %s", domain.ErrValidation, field, e.Param())
	case "min":
		return fmt.Errorf("%w: %s must contain at least %s item(s)", domain.ErrValidation, field, e.Param())
	case "gte":
		return fmt.Errorf("%w: %s must be at least %s", domain.ErrValidation, field, e.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", domain.ErrValidation, field)
	}
}
