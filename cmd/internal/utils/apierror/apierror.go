package apierror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Engine error codes surfaced to callers.
const (
	CodeInvalidInput       = "InvalidInput"
	CodeNotFound           = "NotFound"
	CodeSlotConflict       = "SlotConflict"
	CodeAlreadyCancelled   = "AlreadyCancelled"
	CodeStorageUnavailable = "StorageUnavailable"
	CodeUnauthorized       = "Unauthorized"
	CodeInternal           = "Internal"
)

type ErrorResponse interface {
	Code() int
	ErrorCode() string
	Message() string
}

type apiError struct {
	Status int    `json:"-"`
	Err    string `json:"errorCode"`
	Msg    string `json:"message"`
}

func (e *apiError) Code() int         { return e.Status }
func (e *apiError) ErrorCode() string { return e.Err }
func (e *apiError) Message() string   { return e.Msg }

var (
	InternalServerError     = New(500, CodeInternal, "Internal server error")
	StorageUnavailableError = New(503, CodeStorageUnavailable, "Storage temporarily unavailable, retry the action")
	NotFoundError           = New(404, CodeNotFound, "Resource not found")
	MalformedBodyError      = New(400, CodeInvalidInput, "Malformed request body")
	InvalidAuthTokenError   = New(401, CodeUnauthorized, "Invalid or missing bridge token")
	SlotConflictError       = New(409, CodeSlotConflict, "Requested slot is already booked")
	AlreadyCancelledError   = New(410, CodeAlreadyCancelled, "Booking is already cancelled")
	SlotInPastError         = New(400, CodeInvalidInput, "Slot must be in the future")
	HourNotExactError       = New(400, CodeInvalidInput, "Slot must start on an exact hour")
)

func New(status int, code, message string) ErrorResponse {
	return &apiError{Status: status, Err: code, Msg: message}
}

// NewSimple derives the engine error code from the HTTP status.
func NewSimple(status int, message string) ErrorResponse {
	return &apiError{Status: status, Err: codeForStatus(status), Msg: message}
}

func NewMissingParamError(name string) ErrorResponse {
	return New(400, CodeInvalidInput, fmt.Sprintf("Missing required parameter: %s", name))
}

func NewNotFoundError(what string) ErrorResponse {
	return New(404, CodeNotFound, fmt.Sprintf("%s not found", what))
}

// FromValidationError flattens validator.ValidationErrors into a single
// InvalidInput response naming the offending fields.
func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MalformedBodyError
	}

	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
	}
	return New(400, CodeInvalidInput, "Invalid fields: "+strings.Join(fields, ", "))
}

func codeForStatus(status int) string {
	switch status {
	case 400:
		return CodeInvalidInput
	case 401, 403:
		return CodeUnauthorized
	case 404:
		return CodeNotFound
	case 409:
		return CodeSlotConflict
	case 410:
		return CodeAlreadyCancelled
	case 503:
		return CodeStorageUnavailable
	default:
		return CodeInternal
	}
}
