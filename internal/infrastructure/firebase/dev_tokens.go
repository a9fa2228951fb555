package firebase

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Gepardi-dot/ku-online-dev-sub000/pkg/errors"
)

// DevTokenVerifier accepts locally signed HS256 tokens so the realtime stack
// can run without Firebase credentials in development. Never wired in
// production mode.
type DevTokenVerifier struct {
	secret []byte
	expiry time.Duration
}

func NewDevTokenVerifier(secret string, expiry time.Duration) *DevTokenVerifier {
	return &DevTokenVerifier{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (v *DevTokenVerifier) VerifyToken(_ context.Context, token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Unauthorized("Unexpected signing method", nil)
		}
		return v.secret, nil
	})
	if err != nil {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", errors.Unauthorized("Token has no subject", nil)
	}

	return claims.Subject, nil
}

// IssueToken signs a development token for the given user id.
func (v *DevTokenVerifier) IssueToken(uid string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(v.expiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", errors.Internal("Failed to sign dev token", err)
	}

	return signed, nil
}
