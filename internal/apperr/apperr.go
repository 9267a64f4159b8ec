// Package apperr defines the error codes shared by the submission pipeline
// and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Code string

const (
	CodeFieldInvalid     Code = "FIELD_INVALID"
	CodeCaptchaIncorrect Code = "CAPTCHA_INCORRECT"
	CodeSpamFlagged      Code = "SPAM_FLAGGED"
	CodeFormTokenInvalid Code = "FORM_TOKEN_INVALID"

	CodeStorageFailed Code = "STORAGE_FAILED"
	CodeNotFound      Code = "NOT_FOUND"

	CodeBotTransport     Code = "NOTIFY_BOT_TRANSPORT"
	CodeBotRejected      Code = "NOTIFY_BOT_REJECTED"
	CodeBotMisconfigured Code = "NOTIFY_BOT_MISCONFIGURED"

	CodeSettingsInvalid Code = "SETTINGS_INVALID"
)

// StandardError is a coded error with a caller-safe message. Details and the
// wrapped cause stay server-side.
type StandardError struct {
	Code      Code      `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

func New(code Code, message string) *StandardError {
	return &StandardError{Code: code, Message: message, Timestamp: time.Now().UTC()}
}

func Wrap(code Code, message string, cause error) *StandardError {
	e := New(code, message)
	e.cause = cause
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// CodeOf returns the code of the first StandardError in err's chain, or "".
func CodeOf(err error) Code {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// HTTPStatus maps a code to the status the public and admin APIs answer with.
func HTTPStatus(code Code) int {
	switch code {
	case CodeFieldInvalid, CodeSettingsInvalid:
		return http.StatusBadRequest
	case CodeCaptchaIncorrect, CodeSpamFlagged:
		return http.StatusUnprocessableEntity
	case CodeFormTokenInvalid:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBotTransport, CodeBotRejected:
		return http.StatusBadGateway
	case CodeBotMisconfigured:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
