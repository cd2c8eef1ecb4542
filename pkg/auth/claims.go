package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	UserName string
	Email    string
}

// AccessTokenClaims represents the typed JWT issued to customers. The
// checkout flow needs only the username and the email claim.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	UserName string    `json:"user_name"`
	Email    string    `json:"email"`
	jwt.RegisteredClaims
}
