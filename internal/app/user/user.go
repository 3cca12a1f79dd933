/*
Package user contains the core data structure for user identity.

A user's identity (ID, email) is immutable after signup; the profile fields
(full name, avatar) may change.
*/
package user

import "time"

// User represents a registered account. The password hash never leaves the
// server: it is excluded from JSON serialization.
type User struct {
	// ID is the unique identifier for the user (UUID).
	ID string `json:"_id"`

	// FullName is the display name shown in contact lists.
	FullName string `json:"fullName"`

	// Email is the unique login email.
	Email string `json:"email"`

	// AvatarURL is the blob-store URL of the profile picture, if any.
	AvatarURL string `json:"profilePic,omitempty"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
