// Bearer token passthrough. Tokens are never verified and no request is
// rejected for its token.
package middleware

import (
	"net/http"

	"github.com/matiasleandrokruk/statsmcp/internal/api/ctxkeys"
	pkgauth "github.com/matiasleandrokruk/statsmcp/pkg/auth"
)

// BearerPassthrough stores the bearer token from the Authorization header in
// the request context, plus the unverified JWT subject when there is one.
func BearerPassthrough(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := pkgauth.BearerFromHeader(r.Header.Get(pkgauth.HeaderAuthorization))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := ctxkeys.WithValue(r.Context(), ctxkeys.BearerToken, token)
		if sub := pkgauth.Subject(token); sub != "" {
			ctx = ctxkeys.WithValue(ctx, ctxkeys.Subject, sub)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
