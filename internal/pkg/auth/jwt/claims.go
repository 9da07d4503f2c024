package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims.
// Tokens are issued by the account service; this server only verifies them.
type Payload struct {
	// StandardClaims embeds the registered JWT fields (exp, iat, iss, sub) at the top level
	// of the claim set, so tokens from any compliant issuer validate.
	jwt.StandardClaims

	// ID is the stable user identifier of the token holder. When absent, sub is used.
	ID string `json:"id"`

	// Role is the account role, e.g. "user" or "admin".
	Role string `json:"role"`

	// Name is the display name at issue time. Enrichment does not rely on it.
	Name string `json:"name,omitempty"`
}
