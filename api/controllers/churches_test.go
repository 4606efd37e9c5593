package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dnadiscipleship/dna-backend/api/middleware"
	"github.com/dnadiscipleship/dna-backend/internal/churches"
	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/types"
)

type fakeChurchService struct {
	churches.Service

	lastTransition churches.TransitionInput
	transitionErr  error
	created        *churches.CreateChurchInput
}

func (f *fakeChurchService) CreateChurch(_ context.Context, input churches.CreateChurchInput) (*churches.ChurchDTO, error) {
	f.created = &input
	return &churches.ChurchDTO{ID: uuid.New(), Name: input.Name, Status: enums.ChurchStatusProspect}, nil
}

func (f *fakeChurchService) Transition(_ context.Context, id uuid.UUID, input churches.TransitionInput) (*churches.ChurchDTO, error) {
	f.lastTransition = input
	if f.transitionErr != nil {
		return nil, f.transitionErr
	}
	return &churches.ChurchDTO{ID: id, Status: input.Target}, nil
}

func testControllerLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func adminRequest(method, target string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	r := httptest.NewRequest(method, target, reader)
	sess := &session.UserSession{
		UserID: uuid.New(),
		Email:  "admin@dnadiscipleship.com",
		Roles:  []session.RoleBinding{{Role: enums.RoleAdmin}},
	}
	return r.WithContext(middleware.WithSession(r.Context(), sess))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestCreateChurchStampsActorFromSession(t *testing.T) {
	svc := &fakeChurchService{}
	handler := CreateChurch(svc, testControllerLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, adminRequest(http.MethodPost, "/churches", map[string]any{"name": "Grace Fellowship"}))

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, svc.created)
	require.Equal(t, "admin@dnadiscipleship.com", svc.created.ActorEmail)
}

func TestCreateChurchRejectsMissingName(t *testing.T) {
	svc := &fakeChurchService{}
	handler := CreateChurch(svc, testControllerLogger())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, adminRequest(http.MethodPost, "/churches", map[string]any{"city": "Austin"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Nil(t, svc.created)

	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Equal(t, string(pkgerrors.CodeValidation), body.Error.Code)
}

func TestTransitionChurchValidatesStatus(t *testing.T) {
	svc := &fakeChurchService{}
	handler := TransitionChurch(svc, testControllerLogger())

	churchID := uuid.New()
	r := withURLParam(adminRequest(http.MethodPost, "/churches/"+churchID.String()+"/transition",
		map[string]any{"target": "imaginary"}), "churchID", churchID.String())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransitionChurchPassesThroughServiceErrors(t *testing.T) {
	svc := &fakeChurchService{transitionErr: pkgerrors.New(pkgerrors.CodeNotFound, "church not found")}
	handler := TransitionChurch(svc, testControllerLogger())

	churchID := uuid.New()
	r := withURLParam(adminRequest(http.MethodPost, "/churches/"+churchID.String()+"/transition",
		map[string]any{"target": string(enums.ChurchStatusActive), "send_email": true}), "churchID", churchID.String())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, enums.ChurchStatusActive, svc.lastTransition.Target)
	require.True(t, svc.lastTransition.SendEmail)
}
