package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"finance-dashboard/pkg/apierror"
)

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks the validate tags on a decoded payload.
func validateRequest(payload any) error {
	err := requestValidator.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierror.BadRequest("invalid request", err.Error())
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			details = append(details, fe.Field()+": "+fe.Tag()+"="+fe.Param())
			continue
		}
		details = append(details, fe.Field()+": "+fe.Tag())
	}
	return apierror.BadRequest("validation failed", strings.Join(details, "; "))
}
