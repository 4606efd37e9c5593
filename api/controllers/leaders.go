package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/api/responses"
	"github.com/dnadiscipleship/dna-backend/api/validators"
	"github.com/dnadiscipleship/dna-backend/internal/leaders"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type inviteLeaderRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=200"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone,omitempty"`
	RoleTitle *string `json:"role_title,omitempty"`
}

type leaderProfileRequest struct {
	Name      string  `json:"name" validate:"required,min=2,max=200"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone,omitempty"`
	RoleTitle *string `json:"role_title,omitempty"`
}

type groupRequest struct {
	DNALeaderID   *uuid.UUID `json:"dna_leader_id,omitempty"`
	LeaderName    string     `json:"leader_name" validate:"required,min=2,max=200"`
	CoLeaderName  *string    `json:"co_leader_name,omitempty"`
	DiscipleNames []string   `json:"disciple_names"`
	StartDate     *time.Time `json:"start_date,omitempty"`
}

func InviteChurchLeader(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return inviteLeader(logg, func(r *http.Request, input leaders.InviteInput) (any, error) {
		return svc.InviteChurchLeader(r.Context(), input)
	})
}

func InviteDNALeader(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return inviteLeader(logg, func(r *http.Request, input leaders.InviteInput) (any, error) {
		return svc.InviteDNALeader(r.Context(), input)
	})
}

func inviteLeader(logg *logger.Logger, invite func(*http.Request, leaders.InviteInput) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req inviteLeaderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		leader, err := invite(r, leaders.InviteInput{
			ChurchID:   churchID,
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			RoleTitle:  req.RoleTitle,
			ActorEmail: actorEmail(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, leader)
	}
}

func UpdateChurchLeader(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return updateLeader(logg, "leaderID", func(r *http.Request, id uuid.UUID, input leaders.ProfileInput) (any, error) {
		return svc.UpdateChurchLeader(r.Context(), id, input)
	})
}

func UpdateDNALeader(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return updateLeader(logg, "leaderID", func(r *http.Request, id uuid.UUID, input leaders.ProfileInput) (any, error) {
		return svc.UpdateDNALeader(r.Context(), id, input)
	})
}

func updateLeader(logg *logger.Logger, param string, update func(*http.Request, uuid.UUID, leaders.ProfileInput) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseUUIDParam(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req leaderProfileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		leader, err := update(r, id, leaders.ProfileInput{
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			RoleTitle: req.RoleTitle,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, leader)
	}
}

func ListChurchLeaders(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListChurchLeaders(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func ListDNALeaders(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListDNALeaders(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SendLoginLinks mails a fresh magic link to every leader of the church and
// returns the per-recipient tally.
func SendLoginLinks(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tally, err := svc.SendLoginLinks(r.Context(), churchID, actorEmail(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tally)
	}
}

func CreateGroup(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req groupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.CreateGroup(r.Context(), leaders.GroupInput{
			ChurchID:      churchID,
			DNALeaderID:   req.DNALeaderID,
			LeaderName:    req.LeaderName,
			CoLeaderName:  req.CoLeaderName,
			DiscipleNames: req.DiscipleNames,
			StartDate:     req.StartDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

func UpdateGroup(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := validators.ParseUUIDParam(r, "groupID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req groupRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.UpdateGroup(r.Context(), groupID, leaders.GroupInput{
			ChurchID:      churchID,
			DNALeaderID:   req.DNALeaderID,
			LeaderName:    req.LeaderName,
			CoLeaderName:  req.CoLeaderName,
			DiscipleNames: req.DiscipleNames,
			StartDate:     req.StartDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, group)
	}
}

func DeleteGroup(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groupID, err := validators.ParseUUIDParam(r, "groupID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteGroup(r.Context(), groupID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func ListGroups(svc leaders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		churchID, err := validators.ParseUUIDParam(r, "churchID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListGroups(r.Context(), churchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
