package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the claims carried by access tokens issued by the external
// identity service.
type JWTClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	ShopID string `json:"shop_id,omitempty"`
	jwt.RegisteredClaims
}
