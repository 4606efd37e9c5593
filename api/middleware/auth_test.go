package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type fakeResolver struct {
	sessions map[string]*session.UserSession
}

func (f *fakeResolver) ResolveSession(_ context.Context, sessionToken, legacyToken string) (*session.UserSession, error) {
	if s, ok := f.sessions[sessionToken]; ok {
		return s, nil
	}
	if s, ok := f.sessions[legacyToken]; ok {
		return s, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
}

func testMiddlewareLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func sessionCfg() config.SessionConfig {
	return config.SessionConfig{CookieName: "dna_session", LegacyCookie: "dna_token"}
}

func leaderSession(churchID uuid.UUID) *session.UserSession {
	return &session.UserSession{
		UserID: uuid.New(),
		Email:  "leader@example.org",
		Roles:  []session.RoleBinding{{Role: enums.RoleChurchLeader, ChurchID: &churchID}},
	}
}

func TestSessionResolvesCookieAndSeedsContext(t *testing.T) {
	churchID := uuid.New()
	resolver := &fakeResolver{sessions: map[string]*session.UserSession{"good-token": leaderSession(churchID)}}

	var seen *session.UserSession
	handler := Session(sessionCfg(), resolver, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "dna_session", Value: "good-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, seen)
	require.Equal(t, "leader@example.org", seen.Email)
}

func TestSessionFallsBackToLegacyCookie(t *testing.T) {
	resolver := &fakeResolver{sessions: map[string]*session.UserSession{"legacy-token": leaderSession(uuid.New())}}

	handler := Session(sessionCfg(), resolver, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "dna_token", Value: "legacy-token"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestSessionRejectsMissingCookies(t *testing.T) {
	resolver := &fakeResolver{sessions: map[string]*session.UserSession{}}

	handler := Session(sessionCfg(), resolver, testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdminForbidsLeaders(t *testing.T) {
	handler := RequireAdmin(testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithSession(r.Context(), leaderSession(uuid.New())))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusForbidden, w.Code)

	admin := &session.UserSession{UserID: uuid.New(), Email: "admin@example.org", Roles: []session.RoleBinding{{Role: enums.RoleAdmin}}}
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithSession(r.Context(), admin))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireChurchAccessChecksBinding(t *testing.T) {
	ownChurch := uuid.New()
	otherChurch := uuid.New()

	handler := RequireChurchAccess(testMiddlewareLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(churchID uuid.UUID, sess *session.UserSession) int {
		r := httptest.NewRequest(http.MethodGet, "/churches/"+churchID.String(), nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("churchID", churchID.String())
		ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rc)
		r = r.WithContext(WithSession(ctx, sess))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	sess := leaderSession(ownChurch)
	require.Equal(t, http.StatusNoContent, serve(ownChurch, sess))
	require.Equal(t, http.StatusForbidden, serve(otherChurch, sess))

	coach := &session.UserSession{UserID: uuid.New(), Email: "coach@example.org", Roles: []session.RoleBinding{{Role: enums.RoleDNACoach}}}
	require.Equal(t, http.StatusNoContent, serve(otherChurch, coach))
}
