// README: Bearer credential issue/verify backed by HMAC JWTs.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rideloop/internal/types"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier resolves a raw bearer token to an Actor. The HTTP middleware and
// tests depend on this interface rather than the concrete JWT service.
type Verifier interface {
	Verify(token string) (Actor, error)
}

type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	return &TokenService{secret: secret, ttl: ttl}
}

func (s *TokenService) Issue(a Actor) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  "rideloop",
		"sub":  string(a.ID),
		"role": string(a.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *TokenService) Verify(tokenString string) (Actor, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return Actor{}, ErrInvalidToken
	}
	switch Role(role) {
	case RoleRider, RoleDriver:
	default:
		return Actor{}, ErrInvalidToken
	}
	return Actor{ID: types.ID(sub), Role: Role(role)}, nil
}
