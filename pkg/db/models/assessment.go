package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ActionPlanEntry collects the user's planned actions for one roadblock.
type ActionPlanEntry struct {
	Actions  []string   `json:"actions"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// Assessment is the single in-progress-or-complete training assessment per
// user. It is created on first load, autosaved while incomplete, and
// finalized by an explicit complete action that stamps CompletedAt.
type Assessment struct {
	ID                  uuid.UUID                                      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID                                      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Ratings             datatypes.JSONType[map[string]int]             `gorm:"column:ratings"`
	Reflections         datatypes.JSONType[map[string]string]          `gorm:"column:reflections"`
	TopRoadblocks       pq.StringArray                                 `gorm:"column:top_roadblocks;type:text[]"`
	ActionPlan          datatypes.JSONType[map[string]ActionPlanEntry] `gorm:"column:action_plan"`
	AccountabilityName  *string                                        `gorm:"column:accountability_name"`
	AccountabilityEmail *string                                        `gorm:"column:accountability_email"`
	CheckinDate         *time.Time                                     `gorm:"column:checkin_date"`
	CompletedAt         *time.Time                                     `gorm:"column:completed_at"`
	CreatedAt           time.Time                                      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                                      `gorm:"column:updated_at;autoUpdateTime"`
}

// Complete reports whether the assessment has been explicitly finalized.
func (a Assessment) Complete() bool {
	return a.CompletedAt != nil
}
