package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dnadiscipleship/dna-backend/internal/auth"
	"github.com/dnadiscipleship/dna-backend/internal/calendar"
	"github.com/dnadiscipleship/dna-backend/internal/churches"
	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
	"github.com/dnadiscipleship/dna-backend/pkg/config"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type stubAuthService struct {
	auth.Service

	sessions map[string]*session.UserSession
}

func (s *stubAuthService) ResolveSession(_ context.Context, sessionToken, legacyToken string) (*session.UserSession, error) {
	if sess, ok := s.sessions[sessionToken]; ok {
		return sess, nil
	}
	if sess, ok := s.sessions[legacyToken]; ok {
		return sess, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
}

type stubChurchService struct {
	churches.Service
}

func (stubChurchService) GetChurch(_ context.Context, id uuid.UUID) (*churches.ChurchDTO, error) {
	return &churches.ChurchDTO{ID: id, Name: "Stub Church", Status: enums.ChurchStatusActive}, nil
}

func (stubChurchService) ListChurches(context.Context, churches.ListChurchesInput) (*churches.ChurchListResult, error) {
	return &churches.ChurchListResult{}, nil
}

type stubCalendarService struct {
	calendar.Service
}

func (stubCalendarService) ListUnmatched(context.Context) ([]models.UnmatchedCalendarEvent, error) {
	return nil, nil
}

func testRouter(authSvc auth.Service) http.Handler {
	cfg := &config.Config{
		App:     config.AppConfig{Env: "test"},
		Session: config.SessionConfig{CookieName: "dna_session", LegacyCookie: "dna_token"},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})

	return NewRouter(
		cfg,
		logg,
		map[string]func(context.Context) error{},
		authSvc,
		stubChurchService{},
		nil, // progress
		nil, // calls
		nil, // documents
		nil, // leaders
		nil, // assessments
		nil, // launch guide
		nil, // audit
		nil, // analytics
		stubCalendarService{},
	)
}

func sessionsFixture(churchID uuid.UUID) *stubAuthService {
	return &stubAuthService{sessions: map[string]*session.UserSession{
		"admin-token": {
			UserID: uuid.New(),
			Email:  "admin@dnadiscipleship.com",
			Roles:  []session.RoleBinding{{Role: enums.RoleAdmin}},
		},
		"leader-token": {
			UserID: uuid.New(),
			Email:  "leader@grace.church",
			Roles:  []session.RoleBinding{{Role: enums.RoleChurchLeader, ChurchID: &churchID}},
		},
	}}
}

func get(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		r.AddCookie(&http.Cookie{Name: "dna_session", Value: token})
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := testRouter(sessionsFixture(uuid.New()))
	require.Equal(t, http.StatusOK, get(t, router, "/health/live", "").Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	router := testRouter(sessionsFixture(uuid.New()))
	require.Equal(t, http.StatusUnauthorized, get(t, router, "/api/v1/churches", "").Code)
	require.Equal(t, http.StatusUnauthorized, get(t, router, "/api/admin/v1/calendar/unmatched", "").Code)
}

func TestChurchListingIsStaffOnly(t *testing.T) {
	router := testRouter(sessionsFixture(uuid.New()))
	require.Equal(t, http.StatusForbidden, get(t, router, "/api/v1/churches", "leader-token").Code)
	require.Equal(t, http.StatusOK, get(t, router, "/api/v1/churches", "admin-token").Code)
}

func TestChurchScopeGuardsLeaderRoutes(t *testing.T) {
	ownChurch := uuid.New()
	router := testRouter(sessionsFixture(ownChurch))

	require.Equal(t, http.StatusOK, get(t, router, "/api/v1/churches/"+ownChurch.String(), "leader-token").Code)
	require.Equal(t, http.StatusForbidden, get(t, router, "/api/v1/churches/"+uuid.NewString(), "leader-token").Code)
	require.Equal(t, http.StatusOK, get(t, router, "/api/v1/churches/"+uuid.NewString(), "admin-token").Code)
}

func TestAdminRoutesRejectLeaders(t *testing.T) {
	router := testRouter(sessionsFixture(uuid.New()))
	require.Equal(t, http.StatusForbidden, get(t, router, "/api/admin/v1/calendar/unmatched", "leader-token").Code)
	require.Equal(t, http.StatusOK, get(t, router, "/api/admin/v1/calendar/unmatched", "admin-token").Code)
}
