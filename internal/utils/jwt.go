package utils

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"zeen/internal/models"
)

// GenerateOperatorToken signs an access token for an API caller. The JWT
// secret is expected in the JWT_SECRET environment variable.
func GenerateOperatorToken(claims *models.OperatorClaims, ttl time.Duration) (string, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return "", errors.New("JWT_SECRET not configured")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	now := time.Now()
	signed := models.OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "zeen-payments",
			Subject:   strconv.FormatUint(uint64(claims.OperatorID), 10),
		},
		OperatorID:  claims.OperatorID,
		Email:       claims.Email,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, signed)
	return token.SignedString([]byte(jwtSecret))
}
