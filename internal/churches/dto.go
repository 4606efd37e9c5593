package churches

import (
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// ChurchDTO is the API shape of a church.
type ChurchDTO struct {
	ID           uuid.UUID                    `json:"id"`
	Name         string                       `json:"name"`
	City         *string                      `json:"city,omitempty"`
	State        *string                      `json:"state,omitempty"`
	ContactName  *string                      `json:"contact_name,omitempty"`
	ContactEmail *string                      `json:"contact_email,omitempty"`
	ContactPhone *string                      `json:"contact_phone,omitempty"`
	Website      *string                      `json:"website,omitempty"`
	Status       enums.ChurchStatus           `json:"status"`
	NextStatus   *enums.ChurchStatus          `json:"next_status,omitempty"`
	TierName     *string                      `json:"tier_name,omitempty"`
	CurrentPhase int                          `json:"current_phase"`
	PhaseDates   map[string]models.PhaseDates `json:"phase_dates,omitempty"`
	Notes        *string                      `json:"notes,omitempty"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

// NewChurchDTO maps the model into its API shape, including the suggested
// next pipeline transition.
func NewChurchDTO(church *models.Church) *ChurchDTO {
	dto := &ChurchDTO{
		ID:           church.ID,
		Name:         church.Name,
		City:         church.City,
		State:        church.State,
		ContactName:  church.ContactName,
		ContactEmail: church.ContactEmail,
		ContactPhone: church.ContactPhone,
		Website:      church.Website,
		Status:       church.Status,
		TierName:     church.TierName,
		CurrentPhase: church.CurrentPhase,
		PhaseDates:   church.PhaseDates.Data(),
		Notes:        church.Notes,
		CreatedAt:    church.CreatedAt,
		UpdatedAt:    church.UpdatedAt,
	}
	if next, ok := church.Status.NextStatus(); ok {
		dto.NextStatus = &next
	}
	return dto
}

// ChurchListResult is one page of churches plus the cursor for the next.
type ChurchListResult struct {
	Churches   []ChurchDTO `json:"churches"`
	NextCursor *string     `json:"next_cursor,omitempty"`
}
