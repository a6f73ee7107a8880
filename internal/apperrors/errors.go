package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrMissingField      = fmt.Errorf("%w: missing field", ErrValidation)
	ErrInvalidReference  = fmt.Errorf("%w: invalid reference", ErrValidation)
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid identifier", ErrValidation)
	ErrInvalidField      = fmt.Errorf("%w: invalid field", ErrValidation)

	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
	ErrTokenMismatch      = fmt.Errorf("%w: refresh token does not match", ErrUnauthenticated)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrUnauthenticated)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)

	ErrForbidden       = errors.New("you are not authorized to perform this action")
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource already exists")
	ErrPayloadTooLarge = errors.New("request body too large")
)

// FieldError ties a validation failure to the JSON field that caused it.
// Detail, when set, is the human readable message shown to clients.
type FieldError struct {
	Field  string
	Err    error
	Detail string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.message())
}

func (e *FieldError) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }

// FieldErrors is the set of problems found in one payload. It unwraps to
// the first entry so errors.Is sees the dominant kind.
type FieldErrors []*FieldError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return ErrValidation.Error()
	}
	if len(fe) == 1 {
		return fe[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", fe[0].Error(), len(fe)-1)
}

func (fe FieldErrors) Unwrap() []error {
	errs := make([]error, 0, len(fe))
	for _, e := range fe {
		errs = append(errs, e)
	}
	return errs
}

// Fields returns field -> message pairs for the response envelope.
func Fields(err error) []map[string]string {
	var many FieldErrors
	if errors.As(err, &many) {
		out := make([]map[string]string, 0, len(many))
		for _, e := range many {
			out = append(out, map[string]string{"field": e.Field, "message": e.message()})
		}
		return out
	}
	var one *FieldError
	if errors.As(err, &one) {
		return []map[string]string{{"field": one.Field, "message": one.message()}}
	}
	return []map[string]string{}
}

// Status maps an error onto the HTTP status code of its kind.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// public lists the sentinels whose text may reach clients, most specific
// first.
var public = []error{
	ErrInvalidToken, ErrTokenMismatch, ErrUserNotFound, ErrInvalidCredentials, ErrUnauthenticated,
	ErrForbidden, ErrNotFound, ErrConflict, ErrPayloadTooLarge,
}

// Message returns the client facing text for err: the text of its taxonomy
// sentinel, without the wrapping context added on the way up.
func Message(err error) string {
	for _, s := range public {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

// IsInternal reports whether err falls outside the known taxonomy.
func IsInternal(err error) bool {
	return Status(err) == http.StatusInternalServerError
}
