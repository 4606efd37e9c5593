package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// LaunchGuidePhaseProgress tracks a user's state within one launch-guide
// phase: checked checklist items, satisfied section checks, and the free-form
// field values the guide collects. "Ready to complete" is derived from the
// phase template, never stored.
type LaunchGuidePhaseProgress struct {
	ID                      uuid.UUID                             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                  uuid.UUID                             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_launch_guide_user_phase"`
	PhaseNumber             int                                   `gorm:"column:phase_number;not null;uniqueIndex:idx_launch_guide_user_phase"`
	CompletedChecklistItems pq.StringArray                        `gorm:"column:completed_checklist_items;type:text[]"`
	CompletedSectionChecks  pq.StringArray                        `gorm:"column:completed_section_checks;type:text[]"`
	UserData                datatypes.JSONType[map[string]string] `gorm:"column:user_data"`
	CompletedAt             *time.Time                            `gorm:"column:completed_at"`
	CreatedAt               time.Time                             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time                             `gorm:"column:updated_at;autoUpdateTime"`
}
