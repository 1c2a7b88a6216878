package services

import (
	"github.com/golang-jwt/jwt/v5"

	pulse_errors "pulse-chat/pkg/errors"
)

// AuthService verifies bearer tokens minted by the external identity
// provider. The chat core never issues tokens itself; it only needs the auth
// subject id out of a verified one.
type AuthService struct {
	secret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

type AccessClaims struct {
	jwt.RegisteredClaims
}

// ParseAccessToken verifies the signature and expiry and returns the claims.
// The subject claim carries the identity provider's user id.
func (s *AuthService) ParseAccessToken(token string) (AccessClaims, error) {
	if token == "" {
		return AccessClaims{}, pulse_errors.ErrUnauthorized
	}

	var claims AccessClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, pulse_errors.ErrUnauthorized
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return AccessClaims{}, pulse_errors.ErrUnauthorized
	}
	if claims.Subject == "" {
		return AccessClaims{}, pulse_errors.ErrUnauthorized
	}
	return claims, nil
}
