package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/calls"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type createCallRequest struct {
	CallType    string    `json:"call_type" validate:"required"`
	Title       *string   `json:"title,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	MeetLink    *string   `json:"meet_link,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

type updateCallRequest struct {
	CallType    *string    `json:"call_type,omitempty"`
	Title       *string    `json:"title,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
	MeetLink    *string    `json:"meet_link,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
}

func parseCallType(raw string) (enums.CallType, error) {
	callType := enums.CallType(strings.TrimSpace(raw))
	if !callType.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown call type").WithDetails(map[string]any{"call_type": raw})
	}
	return callType, nil
}

func CreateCall(svc calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createCallRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		callType, err := parseCallType(req.CallType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		call, err := svc.CreateCall(r.Context(), calls.CreateCallInput{
			ChurchID:    churchID,
			CallType:    callType,
			Title:       req.Title,
			ScheduledAt: req.ScheduledAt,
			MeetLink:    req.MeetLink,
			Notes:       req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, call)
	}
}

func ListCalls(svc calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		upcoming := false
		if raw := strings.TrimSpace(r.URL.Query().Get("upcoming")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid upcoming value"))
				return
			}
			upcoming = value
		}

		list, err := svc.ListCalls(r.Context(), churchID, upcoming)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func UpdateCall(svc calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callID, err := validators.ParseUUIDParam(r, "callID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateCallRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := calls.UpdateCallInput{
			Title:       req.Title,
			ScheduledAt: req.ScheduledAt,
			Completed:   req.Completed,
			MeetLink:    req.MeetLink,
			Notes:       req.Notes,
		}
		if req.CallType != nil {
			callType, err := parseCallType(*req.CallType)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CallType = &callType
		}

		call, err := svc.UpdateCall(r.Context(), callID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, call)
	}
}

func DeleteCall(svc calls.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callID, err := validators.ParseUUIDParam(r, "callID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCall(r.Context(), callID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
