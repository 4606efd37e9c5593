package controllers

import (
	"net/http"
	"time"

	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/progress"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type toggleMilestoneRequest struct {
	Completed bool `json:"completed"`
}

type milestoneTargetDateRequest struct {
	TargetDate *time.Time `json:"target_date"`
}

type milestoneNotesRequest struct {
	Notes *string `json:"notes"`
}

func GetProgressSummary(svc progress.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func ToggleMilestone(svc progress.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		milestoneID, err := validators.ParseUUIDParam(r, "milestoneID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req toggleMilestoneRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		milestone, err := svc.Toggle(r.Context(), churchID, milestoneID, progress.ToggleInput{
			Completed:  req.Completed,
			ActorEmail: actorEmail(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, milestone)
	}
}

func SetMilestoneTargetDate(svc progress.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		milestoneID, err := validators.ParseUUIDParam(r, "milestoneID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req milestoneTargetDateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		milestone, err := svc.SetTargetDate(r.Context(), churchID, milestoneID, req.TargetDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, milestone)
	}
}

func SetMilestoneNotes(svc progress.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		milestoneID, err := validators.ParseUUIDParam(r, "milestoneID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req milestoneNotesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		milestone, err := svc.SetNotes(r.Context(), churchID, milestoneID, req.Notes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, milestone)
	}
}
