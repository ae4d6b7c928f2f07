package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"gymcheckin/constants"
	apperrors "gymcheckin/errors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		}
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("visitdate", isVisitDate)
	return v
}

// isVisitDate accepts a calendar date in YYYY-MM-DD form.
func isVisitDate(fl validator.FieldLevel) bool {
	_, err := time.Parse(constants.DateLayout, fl.Field().String())
	return err == nil
}

// ValidateStruct checks v's validate tags and returns an AppError naming the
// first failing field.
func ValidateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewAppError(apperrors.ErrCodeValidation, "Invalid request", err)
	}
	fe := fieldErrs[0]
	return apperrors.NewAppError(codeFor(fe), messageFor(fe), err)
}

func codeFor(fe validator.FieldError) apperrors.ErrorCode {
	switch fe.Tag() {
	case "required":
		return apperrors.ErrCodeRequiredField
	case "email", "visitdate":
		return apperrors.ErrCodeInvalidFormat
	}
	return apperrors.ErrCodeValidation
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "visitdate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD form", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
