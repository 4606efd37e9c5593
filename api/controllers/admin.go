package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/analytics"
	"github.com/dnadiscipleship/dna-backend/internal/auditlog"
	"github.com/dnadiscipleship/dna-backend/internal/auth"
	"github.com/dnadiscipleship/dna-backend/internal/calendar"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
)

type linkUnmatchedRequest struct {
	ChurchID uuid.UUID `json:"church_id" validate:"required"`
	CallType *string   `json:"call_type,omitempty"`
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// ListActivityLog pages the admin activity trail, optionally filtered by
// actor, church or action.
func ListActivityLog(svc *auditlog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := auditlog.ListFilters{
			ActorEmail: strings.TrimSpace(r.URL.Query().Get("actor")),
			Action:     strings.TrimSpace(r.URL.Query().Get("action")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("church_id")); raw != "" {
			churchID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "church_id must be a uuid"))
				return
			}
			filters.ChurchID = &churchID
		}

		entries, nextCursor, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": entries, "next_cursor": nextCursor})
	}
}

// TokenHistory pages the magic-link issue/use audit.
func TokenHistory(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := auth.TokenHistoryFilters{
			Email: strings.TrimSpace(r.URL.Query().Get("email")),
		}

		tokens, nextCursor, err := svc.TokenHistory(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"tokens": tokens, "next_cursor": nextCursor})
	}
}

// AnalyticsOverview aggregates pipeline, assessment and call counters.
func AnalyticsOverview(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		windowDays, err := validators.ParseQueryInt(r, "window_days", 0, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		overview, err := svc.Overview(r.Context(), time.Duration(windowDays)*24*time.Hour)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}

// CalendarConnect starts the OAuth consent flow.
func CalendarConnect(svc calendar.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := svc.AuthorizeURL(uuid.NewString())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"authorize_url": url})
	}
}

// CalendarCallback exchanges the OAuth code and stores the token.
func CalendarCallback(svc calendar.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(r.URL.Query().Get("code"))
		if code == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "code query parameter is required"))
			return
		}

		if err := svc.HandleCallback(r.Context(), code); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "connected"})
	}
}

// CalendarSync runs one sync pass on demand and returns the report.
func CalendarSync(svc calendar.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.Sync(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// CalendarRuns lists recent sync run summaries.
func CalendarRuns(svc calendar.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		runs, err := svc.RecentRuns(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, runs)
	}
}

// ListUnmatchedEvents shows synced calendar events no church claimed.
func ListUnmatchedEvents(svc calendar.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.ListUnmatched(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}

// LinkUnmatchedEvent attributes one held event to a church by hand.
func LinkUnmatchedEvent(svc calendar.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := validators.ParseUUIDParam(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req linkUnmatchedRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := calendar.LinkInput{EventID: eventID, ChurchID: req.ChurchID}
		if req.CallType != nil {
			callType := enums.CallType(strings.TrimSpace(*req.CallType))
			if !callType.IsValid() {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "unknown call type").WithDetails(map[string]any{"call_type": *req.CallType}))
				return
			}
			input.CallType = &callType
		}

		call, err := svc.LinkUnmatched(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, call)
	}
}
