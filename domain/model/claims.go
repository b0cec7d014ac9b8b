package model

import "github.com/golang-jwt/jwt"

// OperatorClaims is carried by the bearer token that unlocks the sync routes.
type OperatorClaims struct {
	Name string `json:"name,omitempty"`
	jwt.StandardClaims
}
