package apiclient

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the backend puts in its access tokens.
// The subject is the user code.
type TokenClaims struct {
	jwtlib.RegisteredClaims
}

// ParseToken decodes an access token without verifying its signature; the
// client never holds the signing key and only needs the expiry.
func ParseToken(token string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// TokenExpiry returns the exp claim. ok is false when the token has none.
func TokenExpiry(token string) (exp time.Time, ok bool, err error) {
	c, err := ParseToken(token)
	if err != nil {
		return time.Time{}, false, err
	}
	if c.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return c.ExpiresAt.Time, true, nil
}

// TokenExpired reports whether a token is past its exp claim at now.
// Tokens that cannot be decoded count as expired.
func TokenExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	exp, ok, err := TokenExpiry(token)
	if err != nil {
		return true
	}
	return ok && !now.Before(exp)
}
