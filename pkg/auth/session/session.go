package session

import (
	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// RoleBinding pairs a role with its optional church scope.
type RoleBinding struct {
	Role     enums.Role `json:"role"`
	ChurchID *uuid.UUID `json:"church_id,omitempty"`
}

// UserSession is the resolved identity for one request.
type UserSession struct {
	UserID uuid.UUID     `json:"user_id"`
	Email  string        `json:"email"`
	Name   string        `json:"name"`
	Roles  []RoleBinding `json:"roles"`
}

// IsAdmin reports whether the session carries the global admin role.
func (s *UserSession) IsAdmin() bool {
	return s.HasRole(enums.RoleAdmin, nil)
}

// IsDNACoach reports whether the session carries the global coach role.
func (s *UserSession) IsDNACoach() bool {
	return s.HasRole(enums.RoleDNACoach, nil)
}

// HasRole reports whether the session holds the role. For church-scoped
// roles a nil churchID matches any binding of that role; global roles
// ignore churchID entirely.
func (s *UserSession) HasRole(role enums.Role, churchID *uuid.UUID) bool {
	if s == nil {
		return false
	}
	for _, binding := range s.Roles {
		if binding.Role != role {
			continue
		}
		if role.Global() || churchID == nil {
			return true
		}
		if binding.ChurchID != nil && *binding.ChurchID == *churchID {
			return true
		}
	}
	return false
}

// CanAccessChurch reports whether the session may read the church's dashboard.
func (s *UserSession) CanAccessChurch(churchID uuid.UUID) bool {
	if s == nil {
		return false
	}
	if s.IsAdmin() || s.IsDNACoach() {
		return true
	}
	for _, binding := range s.Roles {
		if binding.ChurchID != nil && *binding.ChurchID == churchID {
			return true
		}
	}
	return false
}
