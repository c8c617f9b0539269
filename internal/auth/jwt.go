package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PasswordClaim is the payload field compared against API_PASS.
const PasswordClaim = "password"

// CheckToken reports whether token is an unexpired HS256 token signed with
// secret whose password claim equals password.
func CheckToken(token, secret, password string) bool {
	if token == "" || secret == "" {
		return false
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return false
	}
	got, ok := claims[PasswordClaim].(string)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(password)) == 1
}

// IssueToken signs a token carrying password. A zero ttl issues a token
// without expiry.
func IssueToken(secret, password string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("secret is empty")
	}
	claims := jwt.MapClaims{
		PasswordClaim: password,
		"iat":         time.Now().Unix(),
	}
	if ttl > 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
