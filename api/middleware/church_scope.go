package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/api/responses"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

// RequireChurchAccess checks the session against the {churchID} URL param.
// Admins and DNA coaches pass for any church; leaders only for churches
// their role bindings name.
func RequireChurchAccess(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(chi.URLParam(r, "churchID"))
			churchID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a uuid").WithDetails(map[string]any{"field": "churchID"}))
				return
			}

			sess := SessionFromContext(r.Context())
			if sess == nil || !sess.CanAccessChurch(churchID) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "no access to this church"))
				return
			}

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithChurchID(ctx, churchID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
