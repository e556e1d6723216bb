package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-key-the-server-never-sees"))
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	return token
}

func TestBearerFromHeader(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Bearer abc.def.ghi": "abc.def.ghi",
		"Bearer   opaque  ":  "opaque",
		"":                   "",
		"Basic dXNlcjpwYXNz": "",
		"bearer lowercase":   "",
		"Bearer ":            "",
		"Bearertoken-no-gap": "",
	}
	for header, want := range cases {
		if got := BearerFromHeader(header); got != want {
			t.Errorf("BearerFromHeader(%q) = %q; want %q", header, got, want)
		}
	}
}

func TestHeaderValue_RoundTrip(t *testing.T) {
	t.Parallel()

	if got := BearerFromHeader(HeaderValue("tok-123")); got != "tok-123" {
		t.Fatalf("round trip = %q; want tok-123", got)
	}
}

func TestSubject_JWT(t *testing.T) {
	t.Parallel()

	token := signedToken(t, &Claims{
		Name: "Ana",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	if got := Subject(token); got != "user-42" {
		t.Fatalf("Subject = %q; want user-42", got)
	}

	claims, err := ParseUnverified(token)
	if err != nil {
		t.Fatalf("ParseUnverified failed: %v", err)
	}
	if claims.Name != "Ana" {
		t.Errorf("Name = %q; want Ana", claims.Name)
	}
}

// TestSubject_ExpiredTokenStillAttributed verifies that no validation is
// applied: the token is only used to label logs.
func TestSubject_ExpiredTokenStillAttributed(t *testing.T) {
	t.Parallel()

	token := signedToken(t, jwt.RegisteredClaims{
		Subject:   "old-session",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	if got := Subject(token); got != "old-session" {
		t.Fatalf("Subject = %q; want old-session", got)
	}
}

func TestSubject_OpaqueToken(t *testing.T) {
	t.Parallel()

	if got := Subject("sk-opaque-token"); got != "" {
		t.Fatalf("Subject = %q; want empty", got)
	}
	if _, err := ParseUnverified("a.b.c"); !errors.Is(err, ErrNotJWT) {
		t.Fatalf("ParseUnverified(a.b.c) error = %v; want ErrNotJWT", err)
	}
}
