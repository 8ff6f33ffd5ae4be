package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.StandardClaims
}

const defaultTokenHourLifespan = 24

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "float-backend-dev-secret"
	}
	return secret
}

func tokenLifespan() (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if raw == "" {
		return defaultTokenHourLifespan * time.Hour, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid TOKEN_HOUR_LIFESPAN %q: %w", raw, err)
	}
	return time.Duration(hours) * time.Hour, nil
}

func JwtGenerate(userID string, role string) (string, error) {
	lifespan, err := tokenLifespan()
	if err != nil {
		return "", err
	}

	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		ID:   userID,
		Role: role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	return t.SignedString(jwtSecret)
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
}

// ClaimsFromToken validates a bearer token and returns its claims.
func ClaimsFromToken(token string) (*JwtCustomClaim, error) {
	parsed, err := JwtValidate(token)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
