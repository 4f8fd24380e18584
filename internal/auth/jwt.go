package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const (
	// Admin sessions expire after 24 hours and must be re-established.
	AdminTokenTTL = 24 * time.Hour
	UserTokenTTL  = 7 * 24 * time.Hour
)

type Claims struct {
	UserId  uuid.UUID
	Email   string
	IsAdmin bool
}

func CreateToken(secret []byte, userId uuid.UUID, email string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   userId.String(),
		"email": email,
		"admin": isAdmin,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func VerifyToken(secret []byte, tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Claims{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("invalid token")
	}

	sub, _ := claims["sub"].(string)
	userId, err := uuid.Parse(sub)
	if err != nil {
		return Claims{}, errors.New("invalid token subject")
	}

	email, _ := claims["email"].(string)
	isAdmin, _ := claims["admin"].(bool)

	return Claims{UserId: userId, Email: email, IsAdmin: isAdmin}, nil
}
