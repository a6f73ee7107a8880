package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/hospital-api/internal/apperrors"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON names
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

	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return primitive.IsValidObjectID(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Validate checks a struct and translates failures into apperrors.FieldErrors.
// Missing required values map to ErrMissingField, malformed identifiers to
// ErrInvalidReference, and everything else to ErrInvalidField.
func (v *Validator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := make(apperrors.FieldErrors, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, fieldError(e))
	}
	return out
}

func fieldError(e validator.FieldError) *apperrors.FieldError {
	field := fieldPath(e.Namespace())
	fe := &apperrors.FieldError{Field: field}

	switch e.Tag() {
	case "required":
		fe.Err = apperrors.ErrMissingField
		fe.Detail = field + " is required"
	case "objectid":
		fe.Err = apperrors.ErrInvalidReference
		fe.Detail = field + " must be a valid identifier"
	case "email":
		fe.Err = apperrors.ErrInvalidField
		fe.Detail = field + " must be a valid email address"
	case "min":
		fe.Err = apperrors.ErrInvalidField
		if e.Kind() == reflect.Slice {
			fe.Detail = field + " must contain at least " + e.Param() + " item(s)"
		} else {
			fe.Detail = field + " must be at least " + e.Param() + " characters"
		}
	case "max":
		fe.Err = apperrors.ErrInvalidField
		fe.Detail = field + " must be at most " + e.Param() + " characters"
	case "gt":
		fe.Err = apperrors.ErrInvalidField
		fe.Detail = field + " must be greater than " + e.Param()
	case "lte":
		fe.Err = apperrors.ErrInvalidField
		fe.Detail = field + " must be less than or equal to " + e.Param()
	case "oneof":
		fe.Err = apperrors.ErrInvalidField
		fe.Detail = field + " must be one of [" + e.Param() + "]"
	default:
		fe.Err = apperrors.ErrInvalidField
		fe.Detail = field + " is invalid"
	}
	return fe
}

// fieldPath drops the root struct name: "PatientInput.address.city"
// becomes "address.city".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
