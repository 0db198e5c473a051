package auth

import "teamhub/internal/domain/models"

// TokenVerifier validates bearer tokens issued by the hosted auth service.
// Middleware depends on this interface so tests can swap in a static key.
type TokenVerifier interface {
	// VerifyToken returns the token's claims, or domain.ErrUnauthorized
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	Close() error
}
