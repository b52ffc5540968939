package httpx

import (
	"context"

	"github.com/bwirakes/temu-v2/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID  ctxKey = "user_id"
	CtxKeySession ctxKey = "session"
)

// WithSession attaches verified session claims to ctx.
func WithSession(ctx context.Context, claims jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, claims.Subject)
	ctx = context.WithValue(ctx, CtxKeySession, claims)
	return ctx
}

// SessionFromContext returns the session claims if the request carried a
// valid session.
func SessionFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeySession).(jwtx.Claims)
	return c, ok
}
