// Package auth handles the opaque bearer token that clients may attach to
// requests. Tokens are passed through and never verified; when a token is a
// JWT its subject is read for log attribution only.
// This is a leaf package with no domain dependencies.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	HeaderAuthorization = "Authorization"
	bearerPrefix        = "Bearer "
)

var ErrNotJWT = errors.New("bearer token is not a JWT")

// Claims is the subset of JWT claims read from a bearer token.
type Claims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// BearerFromHeader extracts the token from "Bearer <token>".
// Returns empty string if the header is missing, has the wrong scheme, or the
// token is empty. The scheme is case-sensitive per RFC 7235 usage here.
func BearerFromHeader(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

// HeaderValue formats token for the Authorization header.
func HeaderValue(token string) string {
	return bearerPrefix + token
}

// ParseUnverified decodes the claims of a JWT without checking its signature.
// The result must never be used for an authorization decision.
func ParseUnverified(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrNotJWT
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	return claims, nil
}

// Subject returns the "sub" claim of a JWT bearer token, or "" when the token
// is opaque or carries no subject.
func Subject(token string) string {
	claims, err := ParseUnverified(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}
