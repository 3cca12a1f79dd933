package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims carried by a duochat session token.
// It embeds the standard claims required by the JWT specification plus the
// identity fields every handler needs to resolve the current user.
type Payload struct {
	// StandardClaims embeds Exp (Expiration), Iat (Issued At), and Iss (Issuer),
	// which drive token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the user's unique identifier (UUID).
	ID string `json:"id"`

	// Email is the user's unique login email.
	Email string `json:"email"`

	// FullName is the user's display name at issue time. Informational only;
	// profile edits do not invalidate outstanding tokens.
	FullName string `json:"full_name"`
}
