package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/api/middleware"
	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/churches"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
)

type churchRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=200"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Website      *string `json:"website,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type churchUpdateRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	City         *string `json:"city,omitempty"`
	State        *string `json:"state,omitempty"`
	ContactName  *string `json:"contact_name,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone *string `json:"contact_phone,omitempty"`
	Website      *string `json:"website,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type transitionRequest struct {
	Target    string  `json:"target" validate:"required"`
	TierName  *string `json:"tier_name,omitempty"`
	SendEmail bool    `json:"send_email"`
	Note      *string `json:"note,omitempty"`
}

type bulkTransitionRequest struct {
	ChurchIDs []uuid.UUID `json:"church_ids" validate:"required,min=1"`
	Target    string      `json:"target" validate:"required"`
	SendEmail bool        `json:"send_email"`
}

type advancePhaseRequest struct {
	PhaseNumber int `json:"phase_number" validate:"min=0,max=4"`
}

type phaseDatesRequest struct {
	PhaseNumber int        `json:"phase_number" validate:"min=0,max=4"`
	Start       *time.Time `json:"start,omitempty"`
	Target      *time.Time `json:"target,omitempty"`
}

func CreateChurch(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req churchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		church, err := svc.CreateChurch(r.Context(), churches.CreateChurchInput{
			Name:         req.Name,
			City:         req.City,
			State:        req.State,
			ContactName:  req.ContactName,
			ContactEmail: req.ContactEmail,
			ContactPhone: req.ContactPhone,
			Website:      req.Website,
			Notes:        req.Notes,
			ActorEmail:   actorEmail(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, church)
	}
}

func GetChurch(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		church, err := svc.GetChurch(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, church)
	}
}

func ListChurches(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input := churches.ListChurchesInput{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
		}

		for _, raw := range r.URL.Query()["status"] {
			status := enums.ChurchStatus(strings.TrimSpace(raw))
			if !status.IsValid() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown church status").WithDetails(map[string]any{"status": raw}))
				return
			}
			input.Statuses = append(input.Statuses, status)
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Pagination = pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.ListChurches(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func UpdateChurch(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req churchUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		church, err := svc.UpdateChurch(r.Context(), id, churches.UpdateChurchInput{
			Name:         req.Name,
			City:         req.City,
			State:        req.State,
			ContactName:  req.ContactName,
			ContactEmail: req.ContactEmail,
			ContactPhone: req.ContactPhone,
			Website:      req.Website,
			Notes:        req.Notes,
			ActorEmail:   actorEmail(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, church)
	}
}

func TransitionChurch(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target := enums.ChurchStatus(strings.TrimSpace(req.Target))
		if !target.IsValid() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unknown church status").WithDetails(map[string]any{"target": req.Target}))
			return
		}

		church, err := svc.Transition(r.Context(), id, churches.TransitionInput{
			Target:     target,
			TierName:   req.TierName,
			SendEmail:  req.SendEmail,
			Note:       req.Note,
			ActorEmail: actorEmail(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, church)
	}
}

func BulkTransitionChurches(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkTransitionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target := enums.ChurchStatus(strings.TrimSpace(req.Target))
		if !target.IsValid() {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "unknown church status").WithDetails(map[string]any{"target": req.Target}))
			return
		}

		tally, err := svc.BulkTransition(r.Context(), churches.BulkTransitionInput{
			ChurchIDs:  req.ChurchIDs,
			Target:     target,
			SendEmail:  req.SendEmail,
			ActorEmail: actorEmail(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tally)
	}
}

func AdvanceChurchPhase(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req advancePhaseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		church, err := svc.AdvancePhase(r.Context(), id, churches.AdvancePhaseInput{
			PhaseNumber: req.PhaseNumber,
			ActorEmail:  actorEmail(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, church)
	}
}

func SetChurchPhaseDates(svc churches.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req phaseDatesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		church, err := svc.SetPhaseDates(r.Context(), id, churches.SetPhaseDatesInput{
			PhaseNumber: req.PhaseNumber,
			Dates:       models.PhaseDates{Start: req.Start, Target: req.Target},
			ActorEmail:  actorEmail(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, church)
	}
}

// actorEmail reads the audited actor from the session; transitions and edits
// always run behind auth middleware, so an empty value means a wiring bug.
func actorEmail(r *http.Request) string {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		return sess.Email
	}
	return ""
}
