package api

import (
	"context"
	"net/http"

	"github.com/matiasleandrokruk/statsmcp/internal/api/ctxkeys"
)

// sessionIdentity is the caller identity captured from the request that
// opened an MCP session. Later messages on the session run on the
// session's own context, so the identity is re-attached per tool call.
type sessionIdentity struct {
	token   string
	subject string
}

func identityFromRequest(r *http.Request) sessionIdentity {
	ctx := r.Context()
	return sessionIdentity{
		token:   ctxkeys.Value(ctx, ctxkeys.BearerToken),
		subject: ctxkeys.Value(ctx, ctxkeys.Subject),
	}
}

// attach adds the identity to ctx. Values already on ctx win.
func (id sessionIdentity) attach(ctx context.Context) context.Context {
	if id.token != "" && ctxkeys.Value(ctx, ctxkeys.BearerToken) == "" {
		ctx = ctxkeys.WithValue(ctx, ctxkeys.BearerToken, id.token)
	}
	if id.subject != "" && ctxkeys.Value(ctx, ctxkeys.Subject) == "" {
		ctx = ctxkeys.WithValue(ctx, ctxkeys.Subject, id.subject)
	}
	return ctx
}
