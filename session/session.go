// Package session marks a request as authenticated for a resolved
// user. The flows never call Establish themselves when the caller is
// already authenticated; logging in an authenticated user is a no-op
// for them.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/latchkeyhq/latchkey/domain"
)

// Establisher is the collaborator that turns a resolved user into an
// authenticated request context.
type Establisher interface {
	// Establish returns an opaque session token for the user.
	Establish(user domain.User) (string, error)
}

// Claims is the data stored in a session JWT.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager implements Establisher with signed HS256 tokens. It is
// stateless; validation is pure signature and expiry checking.
type JWTManager struct {
	secret []byte
	expiry time.Duration
}

func NewJWTManager(secret string, expiry time.Duration) *JWTManager {
	if expiry == 0 {
		expiry = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), expiry: expiry}
}

func (m *JWTManager) Establish(user domain.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.GetID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a session token and returns the user ID it names.
func (m *JWTManager) Validate(tokenString string) (string, error) {
	var claims Claims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !t.Valid {
		return "", fmt.Errorf("session: invalid token")
	}
	return claims.Subject, nil
}
