package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// MilestoneDTO is a milestone template merged with the church's progress row
// (zero-valued when the row was never created).
type MilestoneDTO struct {
	MilestoneID uuid.UUID  `json:"milestone_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Position    int        `json:"position"`
	Completed   bool       `json:"completed"`
	CompletedBy *string    `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TargetDate  *time.Time `json:"target_date,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Overdue     bool       `json:"overdue"`
}

// PhaseSummaryDTO is one phase's progress bar.
type PhaseSummaryDTO struct {
	PhaseNumber    int                `json:"phase_number"`
	Title          string             `json:"title"`
	Status         enums.PhaseStatus  `json:"status"`
	CompletedCount int                `json:"completed_count"`
	TotalCount     int                `json:"total_count"`
	Dates          *models.PhaseDates `json:"dates,omitempty"`
	Milestones     []MilestoneDTO     `json:"milestones"`
}

// SummaryDTO is the full progress view for a church. OverallPercent excludes
// phase 0 (onboarding) from the headline.
type SummaryDTO struct {
	ChurchID       uuid.UUID         `json:"church_id"`
	CurrentPhase   int               `json:"current_phase"`
	OverallPercent int               `json:"overall_percent"`
	Phases         []PhaseSummaryDTO `json:"phases"`
}

// NewMilestoneDTO merges a template with its optional progress row.
func NewMilestoneDTO(milestone *models.Milestone, row *models.MilestoneProgress, today time.Time) MilestoneDTO {
	dto := MilestoneDTO{
		MilestoneID: milestone.ID,
		Title:       milestone.Title,
		Description: milestone.Description,
		Position:    milestone.Position,
	}
	if row != nil {
		dto.Completed = row.Completed
		dto.CompletedBy = row.CompletedBy
		dto.CompletedAt = row.CompletedAt
		dto.TargetDate = row.TargetDate
		dto.Notes = row.Notes
		dto.Overdue = row.Overdue(today)
	}
	return dto
}
