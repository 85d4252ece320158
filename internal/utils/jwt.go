package utils

import (
	"errors"
	"time"

	"cardform/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateSessionToken signs a token granting access to one form session.
func GenerateSessionToken(secret, sessionID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("FORM_TOKEN_SECRET not configured")
	}

	now := time.Now()
	claims := models.FormClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    models.TokenIssuer,
			Subject:   sessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSessionToken parses and validates a session token string.
func ParseSessionToken(secret, tokenStr string) (*models.FormClaims, error) {
	if secret == "" {
		return nil, errors.New("FORM_TOKEN_SECRET not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &models.FormClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(models.TokenIssuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.FormClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no session")
	}

	return claims, nil
}
