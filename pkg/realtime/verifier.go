package realtime

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier is the identity collaborator: it turns the bearer credential
// presented at connection time into a verified user ID. Called once per
// connection.
type TokenVerifier interface {
	Verify(ctx context.Context, credential string) (userID string, err error)
}

// JWTVerifier verifies HS256-signed bearer tokens and extracts the user ID
// from the subject claim.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier with the shared signing secret.
func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

func (v *JWTVerifier) Verify(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", ErrUnauthorized
	}

	token, err := jwt.Parse(credential,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !token.Valid {
		return "", errors.Join(ErrUnauthorized, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrUnauthorized
	}

	return sub, nil
}

var _ TokenVerifier = (*JWTVerifier)(nil)
