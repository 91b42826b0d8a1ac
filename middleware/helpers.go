package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// GetClaims returns the JWT claims stashed by JWTMiddleware, or nil when
// the request was not authenticated.
func GetClaims(r *http.Request) *Claims {
	claims, _ := r.Context().Value(userClaimsKey).(*Claims)
	return claims
}

// GetUserID returns the authenticated user's id, or uuid.Nil.
func GetUserID(r *http.Request) uuid.UUID {
	claims := GetClaims(r)
	if claims == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil
	}
	return id
}
