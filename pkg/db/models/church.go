package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// PhaseDates holds the start/target date pair an admin sets per phase.
type PhaseDates struct {
	Start  *time.Time `json:"start,omitempty"`
	Target *time.Time `json:"target,omitempty"`
}

// Church is the canonical tenant record. Churches are never deleted, only
// status-transitioned; declined is terminal but not destructive.
type Church struct {
	ID           uuid.UUID                                 `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string                                    `gorm:"column:name;not null"`
	City         *string                                   `gorm:"column:city"`
	State        *string                                   `gorm:"column:state"`
	ContactName  *string                                   `gorm:"column:contact_name"`
	ContactEmail *string                                   `gorm:"column:contact_email"`
	ContactPhone *string                                   `gorm:"column:contact_phone"`
	Website      *string                                   `gorm:"column:website"`
	Status       enums.ChurchStatus                        `gorm:"column:status;not null;default:'prospect'"`
	TierName     *string                                   `gorm:"column:tier_name"`
	CurrentPhase int                                       `gorm:"column:current_phase;not null;default:0"`
	PhaseDates   datatypes.JSONType[map[string]PhaseDates] `gorm:"column:phase_dates"`
	Notes        *string                                   `gorm:"column:notes"`
	CreatedAt    time.Time                                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                                 `gorm:"column:updated_at;autoUpdateTime"`
}
