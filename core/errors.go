package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// GenericErrorMessage is shown when an error carries no usable message.
const GenericErrorMessage = "Something went wrong"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when submitted data is missing or invalid (HTTP 400/422).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// Error flattens the field errors: the structure is lost past this point.
func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) == 0 {
		return "invalid data"
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// NotFoundError is returned when the server reports the resource as absent (HTTP 404).
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (err NotFoundError) Error() string {
	if err.ID == "" {
		return err.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", err.Resource, err.ID)
}

// ServerError is any other non-2xx response.
type ServerError struct {
	Status  int
	Message string
}

func NewServerError(status int, msg string) error {
	return &ServerError{Status: status, Message: msg}
}

func (err ServerError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("server error (%d)", err.Status)
	}
	return err.Message
}

// NetworkError wraps transport failures: the request never got a response.
type NetworkError struct {
	Err error
}

func NewNetworkError(err error) error {
	return &NetworkError{Err: err}
}

func (err NetworkError) Error() string {
	if err.Err == nil {
		return "network error"
	}
	return "network error: " + err.Err.Error()
}

func (err NetworkError) Unwrap() error { return err.Err }

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// ErrorMessage returns the message stored in a collection's error field.
// Wrapping context added along the way is dropped.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := errors.Cause(err).Error(); msg != "" {
		return msg
	}
	return GenericErrorMessage
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
