/*
Package errs holds the error codes shared by the chat server and the admin API.

A chat login refusal and an admin API failure are both a CustomError: the chat server sends
its Message as the login_failed reason, the admin API renders Code and Message in the JSON
envelope with Status as the HTTP status.
*/
package errs

import (
	"fmt"
	"net/http"
	"strings"

	"linechat/internal/pkg/logx"
)

// CustomError is a coded application error.
type CustomError struct {
	// Code is one of the constants in error_codes.go.
	Code int

	// Message is shown to the peer verbatim.
	Message string

	// Status is the HTTP status for admin API responses; chat-only errors default to 200.
	Status int
}

func (e CustomError) Error() string {
	return fmt.Sprintf("code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is matches on Code, so errors.Is(err, NewError(ErrNicknameTaken)) works.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError returns a copy of the registered error for code. details are printf arguments for
// a message template such as "nickname must be at most %d characters"; for ErrUnknown the
// first detail may be the underlying error, which is logged. Unregistered codes yield ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	tmpl, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d is not registered", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		tmpl = errorMap[ErrUnknown]
		details = nil
	}

	e := tmpl
	if e.Status == 0 {
		e.Status = http.StatusOK
	}

	switch {
	case len(details) == 0:
	case e.Code == ErrUnknown:
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Handling ErrUnknown with underlying error")
		}
	case strings.Contains(e.Message, "%"):
		e.Message = fmt.Sprintf(e.Message, details...)
	default:
		logx.Warn("Error details ignored, message has no placeholders.", "code", code)
	}

	return &e
}
