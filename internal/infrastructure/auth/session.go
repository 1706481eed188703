// Package auth verifies session tokens minted by the external identity
// provider. The service never issues credentials itself; it only checks the
// provider's HMAC-signed JWTs and extracts the provider user id.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// SessionVerifier validates provider session JWTs.
type SessionVerifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewSessionVerifier builds a verifier. Issuer and audience checks are
// skipped when the corresponding value is empty.
func NewSessionVerifier(secret []byte, issuer, audience string) *SessionVerifier {
	return &SessionVerifier{secret: secret, issuer: issuer, audience: audience}
}

// Verify parses and validates the token and returns the subject (the
// provider's user id).
func (v *SessionVerifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}
