package jwt

import "github.com/golang-jwt/jwt"

// RoleAdmin is the only role accepted by the admin API.
const RoleAdmin = "admin"

// Payload defines the JWT claims carried by admin API bearer tokens.
type Payload struct {
	// StandardClaims embeds Exp (Expiration), Iat (Issued At) and Iss (Issuer).
	jwt.StandardClaims

	// Operator names who the token was issued to; it is only logged.
	Operator string `json:"operator"`

	// Role must be RoleAdmin for the token to authorize admin actions.
	Role string `json:"role"`
}
