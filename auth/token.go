package auth

import (
	"errors"
	"fmt"
	"time"

	"finlit-api/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every validation failure: bad signature,
// malformed payload, missing subject, expired token. Callers get no
// more detail than "invalid".
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity extracted from a validated token.
type Claims struct {
	UserID uuid.UUID
	Role   models.Role
}

// TokenIssuer signs and validates bearer tokens with a process-wide
// HMAC secret loaded at startup.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer. ttl is the default token lifetime
// applied when Issue is called without an override.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed HS256 token encoding the subject id, role
// and expiry. A zero ttl uses the issuer default.
func (ti *TokenIssuer) Issue(userID uuid.UUID, role models.Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = ti.ttl
	}
	claims := jwt.MapClaims{
		"sub":  userID.String(),
		"role": string(role),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate parses and verifies a token string. Signature and expiry
// are both enforced; an expired token is invalid, not a warning.
func (ti *TokenIssuer) Validate(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	// jwt.Parse already rejects expired tokens when exp is present,
	// but a token without exp should not slip through either.
	if _, ok := mapClaims["exp"]; !ok {
		return Claims{}, ErrInvalidToken
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok || sub == "" {
		return Claims{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	roleStr, _ := mapClaims["role"].(string)
	role := models.Role(roleStr)
	if !role.Valid() {
		return Claims{}, ErrInvalidToken
	}

	return Claims{UserID: userID, Role: role}, nil
}
