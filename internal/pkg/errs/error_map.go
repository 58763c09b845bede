/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct. The message of a
chat session error is the exact text sent to the client as a login_failed reason.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests, please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Chat Session Errors
	ErrNicknameTaken:   {Code: ErrNicknameTaken, Message: "nickname already in use"},
	ErrNicknameEmpty:   {Code: ErrNicknameEmpty, Message: "nickname must not be empty"},
	ErrNicknameTooLong: {Code: ErrNicknameTooLong, Message: "nickname must be at most %d characters"},
	ErrServerFull:      {Code: ErrServerFull, Message: "server is full", Status: http.StatusServiceUnavailable},
	ErrUserNotOnline:   {Code: ErrUserNotOnline, Message: "user is not online", Status: http.StatusNotFound},

	ErrConnectRateExceeded: {Code: ErrConnectRateExceeded, Message: "too many connections, please try again later", Status: http.StatusTooManyRequests},

	// 3xxx: Admin Security Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Admin token required.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
