/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients.
*/
package errs

// 1xxx: Request Validation Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrEmptyMessage indicates a send request carrying neither text nor an image.
	ErrEmptyMessage = 1005

	// ErrMessageTooLong indicates that the message text exceeded the maximum length limit.
	ErrMessageTooLong = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrInvalidImageData indicates that the supplied image was not a decodable data URL.
	ErrInvalidImageData = 1008
)

// 2xxx: Resource Errors
const (
	// ErrUserNotFound indicates that the referenced user id does not exist.
	ErrUserNotFound = 2001

	// ErrMessageNotFound indicates that the referenced message id does not exist.
	ErrMessageNotFound = 2002
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid session token.
	ErrUnauthorized = 3001

	// ErrInvalidCredentials indicates that email/password verification failed.
	ErrInvalidCredentials = 3002

	// ErrEmailTaken indicates a signup attempt with an already-registered email.
	ErrEmailTaken = 3003

	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = 3004

	// ErrInvalidPassword indicates a password outside the accepted length range.
	ErrInvalidPassword = 3005

	// ErrInvalidFullName indicates a missing or oversized display name.
	ErrInvalidFullName = 3006
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrPersistence indicates that the message/user store was unavailable or a write failed.
	ErrPersistence = 5001

	// ErrImageUpload indicates that the upstream blob store rejected or failed an image upload.
	ErrImageUpload = 5002
)
