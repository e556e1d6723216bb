// Package ctxkeys holds the request context keys shared by the API layer and
// the tool dispatcher. It is a leaf package to avoid import cycles.
package ctxkeys

import "context"

// Key is the named type for all API context keys. Using a named type avoids
// collisions with string keys from other packages (context.Value compares
// both type and value).
type Key string

const (
	// BearerToken is the opaque token from "Authorization: Bearer <token>".
	// It is passed through, never verified.
	BearerToken Key = "bearer_token"

	// Subject is the unverified "sub" claim of a JWT bearer token, used for
	// log attribution only.
	Subject Key = "subject"
)

// WithValue adds a ctxkeys.Key value to the context.
func WithValue(ctx context.Context, key Key, value string) context.Context {
	return context.WithValue(ctx, key, value)
}

// Value returns the string stored under key, or "" when absent.
func Value(ctx context.Context, key Key) string {
	v, _ := ctx.Value(key).(string)
	return v
}
