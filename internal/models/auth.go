package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the access token claims validated at the API boundary.
// Token issuance is owned by the identity service; this API only verifies.
type JWTClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
