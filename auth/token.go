package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionExpiry extracts the exp claim from a bearer token without verifying
// the signature. Verification is the server's job; the client only needs the
// expiry to schedule its refresh ahead of it.
func sessionExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
