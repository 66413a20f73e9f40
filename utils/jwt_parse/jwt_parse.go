package jwt_parse

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken      = errors.New("no authorization token")
	ErrInvalidAuthFormat = errors.New("invalid authorization format")
	ErrInvalidToken      = errors.New("invalid token")
	ErrMissingSubject    = errors.New("no user identifier found in token")
)

// Identity is what the rest of the service knows about the caller.
type Identity struct {
	UserID string
	Role   string
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingToken
	}
	if len(authHeader) > 7 && strings.ToLower(authHeader[:7]) == "bearer " {
		return strings.TrimSpace(authHeader[7:]), nil
	}
	return "", ErrInvalidAuthFormat
}

// ParseJWTToken validates an HMAC-signed token and returns the caller identity.
// user_id is preferred over sub.
func ParseJWTToken(tokenString string, secret []byte) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	var id Identity
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		id.UserID = userID
	} else if sub, ok := claims["sub"].(string); ok && sub != "" {
		id.UserID = sub
	} else {
		return Identity{}, ErrMissingSubject
	}

	id.Role, _ = claims["role"].(string)
	return id, nil
}
