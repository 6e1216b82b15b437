package middleware

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"hearth/pkg/domain"
)

// HS256Validator validates HMAC-signed tokens issued by the external auth
// service. The subject claim carries the user ID.
type HS256Validator struct {
	key []byte
}

func NewHS256Validator(signingKey string) *HS256Validator {
	return &HS256Validator{key: []byte(signingKey)}
}

func (v *HS256Validator) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token invalid")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("subject claim: %w", err)
	}
	userID, err := domain.ParseUserID(subject)
	if err != nil {
		return nil, fmt.Errorf("subject is not a user id: %w", err)
	}
	return &JWTClaims{UserID: userID}, nil
}
