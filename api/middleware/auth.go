package middleware

import (
	"context"
	"net/http"

	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

// SessionResolver turns session or legacy magic-link cookies into a
// resolved user session. internal/auth.Service satisfies it.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionToken, legacyToken string) (*session.UserSession, error)
}

// Session resolves the caller from the signed session cookie, falling back
// to the legacy magic-link cookie, and seeds the request context. Requests
// without a resolvable session are rejected.
func Session(cfg config.SessionConfig, resolver SessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionToken := cookieValue(r, cfg.CookieName)
			legacyToken := cookieValue(r, cfg.LegacyCookie)

			sess, err := resolver.ResolveSession(r.Context(), sessionToken, legacyToken)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithSession(r.Context(), sess)
			if logg != nil {
				ctx = logg.WithUserID(ctx, sess.UserID.String())
				ctx = logg.WithActorEmail(ctx, sess.Email)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	if name == "" {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// RequireAdmin gates back-office routes to the admin role.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil || !sess.IsAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff admits admins and DNA coaches.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil || (!sess.IsAdmin() && !sess.IsDNACoach()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
