package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// ScheduledCall is an onboarding-funnel call, created manually by an admin or
// upserted by calendar sync. At most one row may exist per google_event_id.
type ScheduledCall struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID      uuid.UUID      `gorm:"column:church_id;type:uuid;not null"`
	CallType      enums.CallType `gorm:"column:call_type;not null"`
	Title         *string        `gorm:"column:title"`
	ScheduledAt   time.Time      `gorm:"column:scheduled_at;not null"`
	Completed     bool           `gorm:"column:completed;not null;default:false"`
	MeetLink      *string        `gorm:"column:meet_link"`
	Notes         *string        `gorm:"column:notes"`
	GoogleEventID *string        `gorm:"column:google_event_id;uniqueIndex"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
