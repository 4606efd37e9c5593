package models

import (
	"time"

	"github.com/google/uuid"
)

// Phase is a fixed ordered template stage in a church's journey.
// Phase 0 is onboarding; 1..N are implementation phases.
type Phase struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PhaseNumber int       `gorm:"column:phase_number;not null;uniqueIndex"`
	Title       string    `gorm:"column:title;not null"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Milestone is a global template task owned by a phase.
type Milestone struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PhaseID     uuid.UUID `gorm:"column:phase_id;type:uuid;not null"`
	Position    int       `gorm:"column:position;not null"`
	Title       string    `gorm:"column:title;not null"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// MilestoneProgress is the per-church instance of a milestone template.
// Created lazily on first toggle and never deleted; toggling off just flips
// completed back to false and clears the completion metadata.
type MilestoneProgress struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID    uuid.UUID  `gorm:"column:church_id;type:uuid;not null;uniqueIndex:idx_progress_church_milestone"`
	MilestoneID uuid.UUID  `gorm:"column:milestone_id;type:uuid;not null;uniqueIndex:idx_progress_church_milestone"`
	Completed   bool       `gorm:"column:completed;not null;default:false"`
	CompletedBy *string    `gorm:"column:completed_by"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	TargetDate  *time.Time `gorm:"column:target_date"`
	Notes       *string    `gorm:"column:notes"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Overdue reports whether the milestone is past its target date and still open.
// Completed milestones are never overdue regardless of date.
func (p MilestoneProgress) Overdue(today time.Time) bool {
	if p.Completed || p.TargetDate == nil {
		return false
	}
	y, m, d := today.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	return p.TargetDate.Before(dayStart)
}
