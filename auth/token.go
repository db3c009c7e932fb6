package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims embeds the registered claims plus the voter identity and privilege
// carried by a session token.
type Claims struct {
	jwt.RegisteredClaims
	VoterID string `json:"voterId"`
	Admin   bool   `json:"admin"`
}

const (
	// VoterTokenValidity bounds a regular session issued after OTP
	// verification.
	VoterTokenValidity = time.Hour
	// AdminTokenValidity bounds the password-only admin session.
	AdminTokenValidity = 8 * time.Hour
)

var ErrInvalidToken = errors.New("invalid session token")

func GenerateToken(voterID string, admin bool, secret []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		VoterID: voterID,
		Admin:   admin,
	})

	return token.SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
