package middleware

import (
	"context"

	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
)

type contextKey string

const ctxSession contextKey = "user_session"

// SessionFromContext returns the resolved session, or nil when the request
// passed through no auth middleware.
func SessionFromContext(ctx context.Context) *session.UserSession {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*session.UserSession); ok {
		return v
	}
	return nil
}

// WithSession injects the resolved session into the context.
func WithSession(ctx context.Context, sess *session.UserSession) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}
