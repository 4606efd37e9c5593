package controllers

import (
	"net/http"
	"time"

	"github.com/dnadiscipleship/dna-backend/api/middleware"
	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/assessments"
	"github.com/dnadiscipleship/dna-backend/pkg/auth/session"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type autosaveRequest struct {
	Ratings             map[string]int                    `json:"ratings,omitempty"`
	Reflections         map[string]string                 `json:"reflections,omitempty"`
	ActionPlan          map[string]models.ActionPlanEntry `json:"action_plan,omitempty"`
	AccountabilityName  *string                           `json:"accountability_name,omitempty"`
	AccountabilityEmail *string                           `json:"accountability_email,omitempty" validate:"omitempty,email"`
	CheckinDate         *time.Time                        `json:"checkin_date,omitempty"`
}

func requireSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) *session.UserSession {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
		return nil
	}
	return sess
}

// GetAssessment returns the caller's assessment, creating a blank one on
// first access.
func GetAssessment(svc assessments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		assessment, err := svc.GetOrCreate(r.Context(), sess.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assessment)
	}
}

func AutosaveAssessment(svc assessments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		var req autosaveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assessment, err := svc.Autosave(r.Context(), sess.UserID, assessments.AutosaveInput{
			Ratings:             req.Ratings,
			Reflections:         req.Reflections,
			ActionPlan:          req.ActionPlan,
			AccountabilityName:  req.AccountabilityName,
			AccountabilityEmail: req.AccountabilityEmail,
			CheckinDate:         req.CheckinDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assessment)
	}
}

func CompleteAssessment(svc assessments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}

		assessment, err := svc.Complete(r.Context(), sess.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assessment)
	}
}

// ListRoadblocks returns the static roadblock catalog the assessment rates.
func ListRoadblocks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, assessments.Roadblocks())
	}
}
