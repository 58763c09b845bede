/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally within
the server and in communication with chat clients and admin API callers.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that an admin API caller exceeded its request rate.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Chat Session Errors
const (
	// ErrNicknameTaken indicates that another live session already holds the requested nickname.
	ErrNicknameTaken = 2101

	// ErrNicknameEmpty indicates that the login carried an empty or whitespace-only nickname.
	ErrNicknameEmpty = 2102

	// ErrNicknameTooLong indicates that the nickname exceeds the configured maximum length.
	ErrNicknameTooLong = 2103

	// ErrServerFull indicates that the server reached its session capacity.
	ErrServerFull = 2104

	// ErrUserNotOnline indicates that no authenticated session holds the given nickname.
	ErrUserNotOnline = 2105

	// ErrConnectRateExceeded indicates that a peer opened chat connections faster than allowed.
	ErrConnectRateExceeded = 2106
)

// 3xxx: Admin Security Errors
const (
	// ErrUnauthorized indicates a missing, invalid or expired admin token.
	ErrUnauthorized = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
