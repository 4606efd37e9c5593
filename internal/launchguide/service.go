package launchguide

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
)

// Service manages per-user launch-guide phase progress.
type Service interface {
	Phases() []PhaseTemplate
	GetPhase(ctx context.Context, userID uuid.UUID, phaseNumber int) (*PhaseProgressDTO, error)
	ToggleChecklistItem(ctx context.Context, userID uuid.UUID, phaseNumber int, itemID string, done bool) (*PhaseProgressDTO, error)
	ToggleSectionCheck(ctx context.Context, userID uuid.UUID, phaseNumber int, checkID string, done bool) (*PhaseProgressDTO, error)
	SaveUserData(ctx context.Context, userID uuid.UUID, phaseNumber int, fieldID, value string) (*PhaseProgressDTO, error)
	CompletePhase(ctx context.Context, userID uuid.UUID, phaseNumber int) (*PhaseProgressDTO, error)
}

// PhaseProgressDTO merges the static template with one user's progress.
type PhaseProgressDTO struct {
	PhaseNumber             int               `json:"phase_number"`
	Title                   string            `json:"title"`
	Sections                []Section         `json:"sections"`
	ChecklistItems          []ChecklistItem   `json:"checklist_items,omitempty"`
	CompletedChecklistItems []string          `json:"completed_checklist_items"`
	CompletedSectionChecks  []string          `json:"completed_section_checks"`
	UserData                map[string]string `json:"user_data"`
	ReadyToComplete         bool              `json:"ready_to_complete"`
	CompletedAt             *time.Time        `json:"completed_at,omitempty"`
	NextPhase               *int              `json:"next_phase,omitempty"`
}

type progressStore interface {
	FindProgress(ctx context.Context, userID uuid.UUID, phaseNumber int) (*models.LaunchGuidePhaseProgress, error)
	Create(ctx context.Context, row *models.LaunchGuidePhaseProgress) (*models.LaunchGuidePhaseProgress, error)
	Update(ctx context.Context, row *models.LaunchGuidePhaseProgress) (*models.LaunchGuidePhaseProgress, error)
}

type service struct {
	repo progressStore
}

// NewService constructs the launch-guide service.
func NewService(repo progressStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("launch guide repository required")
	}
	return &service{repo: repo}, nil
}

// Phases returns the static template catalog.
func (s *service) Phases() []PhaseTemplate {
	return PhaseTemplates()
}

// GetPhase returns the merged view, creating the progress row lazily.
func (s *service) GetPhase(ctx context.Context, userID uuid.UUID, phaseNumber int) (*PhaseProgressDTO, error) {
	template, row, err := s.load(ctx, userID, phaseNumber)
	if err != nil {
		return nil, err
	}
	return newDTO(template, row), nil
}

// ToggleChecklistItem checks or unchecks one checklist item.
func (s *service) ToggleChecklistItem(ctx context.Context, userID uuid.UUID, phaseNumber int, itemID string, done bool) (*PhaseProgressDTO, error) {
	template, row, err := s.load(ctx, userID, phaseNumber)
	if err != nil {
		return nil, err
	}
	if !template.HasChecklistItem(itemID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown checklist item %q", itemID))
	}

	row.CompletedChecklistItems = toggleID(row.CompletedChecklistItems, itemID, done)
	return s.save(ctx, template, row)
}

// ToggleSectionCheck satisfies or clears one gating section checkbox.
func (s *service) ToggleSectionCheck(ctx context.Context, userID uuid.UUID, phaseNumber int, checkID string, done bool) (*PhaseProgressDTO, error) {
	template, row, err := s.load(ctx, userID, phaseNumber)
	if err != nil {
		return nil, err
	}
	if !template.HasSectionCheck(checkID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown section check %q", checkID))
	}

	row.CompletedSectionChecks = toggleID(row.CompletedSectionChecks, checkID, done)
	return s.save(ctx, template, row)
}

// SaveUserData upserts one free-form field value. The client debounces;
// the server treats every save the same.
func (s *service) SaveUserData(ctx context.Context, userID uuid.UUID, phaseNumber int, fieldID, value string) (*PhaseProgressDTO, error) {
	template, row, err := s.load(ctx, userID, phaseNumber)
	if err != nil {
		return nil, err
	}
	if !template.HasField(fieldID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown field %q", fieldID))
	}

	data := row.UserData.Data()
	if data == nil {
		data = map[string]string{}
	}
	data[fieldID] = value
	row.UserData = datatypes.NewJSONType(data)
	return s.save(ctx, template, row)
}

// CompletePhase stamps the phase done once every gate is satisfied.
func (s *service) CompletePhase(ctx context.Context, userID uuid.UUID, phaseNumber int) (*PhaseProgressDTO, error) {
	template, row, err := s.load(ctx, userID, phaseNumber)
	if err != nil {
		return nil, err
	}

	if !readyToComplete(template, row) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "phase has unmet section checks or checklist items")
	}
	if row.CompletedAt == nil {
		now := time.Now()
		row.CompletedAt = &now
	}
	return s.save(ctx, template, row)
}

func (s *service) load(ctx context.Context, userID uuid.UUID, phaseNumber int) (*PhaseTemplate, *models.LaunchGuidePhaseProgress, error) {
	template, ok := TemplateFor(phaseNumber)
	if !ok {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("launch guide phase %d not found", phaseNumber))
	}

	row, err := s.repo.FindProgress(ctx, userID, phaseNumber)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load launch guide progress")
		}
		row, err = s.repo.Create(ctx, &models.LaunchGuidePhaseProgress{
			UserID:      userID,
			PhaseNumber: phaseNumber,
		})
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create launch guide progress")
		}
	}
	return template, row, nil
}

func (s *service) save(ctx context.Context, template *PhaseTemplate, row *models.LaunchGuidePhaseProgress) (*PhaseProgressDTO, error) {
	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: save launch guide progress")
	}
	return newDTO(template, updated), nil
}

// readyToComplete derives the phase completion gate: every section check
// satisfied and, when the phase has a checklist, every item checked.
func readyToComplete(template *PhaseTemplate, row *models.LaunchGuidePhaseProgress) bool {
	satisfied := make(map[string]bool, len(row.CompletedSectionChecks))
	for _, id := range row.CompletedSectionChecks {
		satisfied[id] = true
	}
	for _, id := range template.SectionCheckIDs() {
		if !satisfied[id] {
			return false
		}
	}

	if len(template.ChecklistItems) == 0 {
		return true
	}
	checked := make(map[string]bool, len(row.CompletedChecklistItems))
	for _, id := range row.CompletedChecklistItems {
		checked[id] = true
	}
	for _, item := range template.ChecklistItems {
		if !checked[item.ID] {
			return false
		}
	}
	return true
}

func toggleID(ids []string, id string, on bool) []string {
	out := make([]string, 0, len(ids)+1)
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	if on {
		out = append(out, id)
	}
	return out
}

func newDTO(template *PhaseTemplate, row *models.LaunchGuidePhaseProgress) *PhaseProgressDTO {
	dto := &PhaseProgressDTO{
		PhaseNumber:             template.PhaseNumber,
		Title:                   template.Title,
		Sections:                template.Sections,
		ChecklistItems:          template.ChecklistItems,
		CompletedChecklistItems: append([]string{}, row.CompletedChecklistItems...),
		CompletedSectionChecks:  append([]string{}, row.CompletedSectionChecks...),
		UserData:                row.UserData.Data(),
		ReadyToComplete:         readyToComplete(template, row),
		CompletedAt:             row.CompletedAt,
	}
	if dto.UserData == nil {
		dto.UserData = map[string]string{}
	}
	if next, ok := NextPhaseNumber(template.PhaseNumber); ok {
		dto.NextPhase = &next
	}
	return dto
}
