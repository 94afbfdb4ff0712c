package types

import "github.com/google/uuid"

// TokenClaims is the authenticated identity carried by a session token.
type TokenClaims struct {
	UserID   uuid.UUID
	Username string
}
