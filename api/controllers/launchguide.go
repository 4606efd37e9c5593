package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/launchguide"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type toggleItemRequest struct {
	ItemID string `json:"item_id" validate:"required"`
	Done   bool   `json:"done"`
}

type saveUserDataRequest struct {
	FieldID string `json:"field_id" validate:"required"`
	Value   string `json:"value"`
}

func parsePhaseNumber(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "phaseNumber"))
	number, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "phase number must be numeric").WithDetails(map[string]any{"field": "phaseNumber"})
	}
	return number, nil
}

// ListLaunchPhases returns the static phase templates.
func ListLaunchPhases(svc launchguide.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Phases())
	}
}

func GetLaunchPhase(svc launchguide.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		phaseNumber, err := parsePhaseNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		phase, err := svc.GetPhase(r.Context(), sess.UserID, phaseNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, phase)
	}
}

func ToggleLaunchChecklistItem(svc launchguide.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		phaseNumber, err := parsePhaseNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req toggleItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		phase, err := svc.ToggleChecklistItem(r.Context(), sess.UserID, phaseNumber, req.ItemID, req.Done)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, phase)
	}
}

func ToggleLaunchSectionCheck(svc launchguide.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		phaseNumber, err := parsePhaseNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req toggleItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		phase, err := svc.ToggleSectionCheck(r.Context(), sess.UserID, phaseNumber, req.ItemID, req.Done)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, phase)
	}
}

func SaveLaunchUserData(svc launchguide.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		phaseNumber, err := parsePhaseNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req saveUserDataRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		phase, err := svc.SaveUserData(r.Context(), sess.UserID, phaseNumber, req.FieldID, req.Value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, phase)
	}
}

func CompleteLaunchPhase(svc launchguide.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := requireSession(w, r, logg)
		if sess == nil {
			return
		}
		phaseNumber, err := parsePhaseNumber(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		phase, err := svc.CompletePhase(r.Context(), sess.UserID, phaseNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, phase)
	}
}
