package enums

import "fmt"

// Role is an access role a user may hold, optionally scoped to a church.
type Role string

const (
	RoleAdmin               Role = "admin"
	RoleDNACoach            Role = "dna_coach"
	RoleChurchLeader        Role = "church_leader"
	RoleDNALeader           Role = "dna_leader"
	RoleTrainingParticipant Role = "training_participant"
)

var validRoles = []Role{
	RoleAdmin,
	RoleDNACoach,
	RoleChurchLeader,
	RoleDNALeader,
	RoleTrainingParticipant,
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// Global reports whether the role applies across all churches.
func (r Role) Global() bool {
	return r == RoleAdmin || r == RoleDNACoach
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
