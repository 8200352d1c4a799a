package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const issuer = "deposit"

type Claims struct {
	jwt.RegisteredClaims
}

func IssueToken(key []byte, userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("Empty user id")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", errors.Wrap(err, "Failed to sign token")
	}
	return token, nil
}

// ParseToken validates the signature and expiration and returns the user id.
func ParseToken(key []byte, raw string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return "", errors.Wrap(err, "Invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("Token has no subject")
	}
	return claims.Subject, nil
}
