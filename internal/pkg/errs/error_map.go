/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

// errorMap stores the detailed CustomError struct corresponding to every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: Request Validation Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format."},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data."},
	ErrEmptyMessage:         {Code: ErrEmptyMessage, Message: "Message must contain text or an image."},
	ErrMessageTooLong:       {Code: ErrMessageTooLong, Message: "Message is too long."},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later."},
	ErrInvalidImageData:     {Code: ErrInvalidImageData, Message: "Image data could not be read."},

	// 2xxx: Resource Errors
	ErrUserNotFound:    {Code: ErrUserNotFound, Message: "User not found."},
	ErrMessageNotFound: {Code: ErrMessageNotFound, Message: "Message not found."},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue."},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect email or password."},
	ErrEmailTaken:         {Code: ErrEmailTaken, Message: "An account with this email already exists."},
	ErrInvalidEmail:       {Code: ErrInvalidEmail, Message: "Invalid email address."},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Password must be between 6 and 50 characters."},
	ErrInvalidFullName:    {Code: ErrInvalidFullName, Message: "Invalid display name."},

	// 5xxx: Internal System Errors
	ErrUnknown:     {Code: ErrUnknown, Message: "Something went wrong. Please try again."},
	ErrPersistence: {Code: ErrPersistence, Message: "Storage is temporarily unavailable. Please try again."},
	ErrImageUpload: {Code: ErrImageUpload, Message: "Image upload failed. Please try again."},
}
