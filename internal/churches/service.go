package churches

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/internal/auditlog"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
	"github.com/dnadiscipleship/dna-backend/pkg/types"
)

// Service exposes church pipeline management.
type Service interface {
	CreateChurch(ctx context.Context, input CreateChurchInput) (*ChurchDTO, error)
	GetChurch(ctx context.Context, id uuid.UUID) (*ChurchDTO, error)
	ListChurches(ctx context.Context, input ListChurchesInput) (*ChurchListResult, error)
	UpdateChurch(ctx context.Context, id uuid.UUID, input UpdateChurchInput) (*ChurchDTO, error)
	Transition(ctx context.Context, id uuid.UUID, input TransitionInput) (*ChurchDTO, error)
	BulkTransition(ctx context.Context, input BulkTransitionInput) (*types.BatchTally, error)
	AdvancePhase(ctx context.Context, id uuid.UUID, input AdvancePhaseInput) (*ChurchDTO, error)
	SetPhaseDates(ctx context.Context, id uuid.UUID, input SetPhaseDatesInput) (*ChurchDTO, error)
}

// CreateChurchInput holds the validated payload to create a church. New
// churches always enter the pipeline as prospects in phase 0.
type CreateChurchInput struct {
	Name         string
	City         *string
	State        *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Website      *string
	Notes        *string
	ActorEmail   string
}

// ListChurchesInput narrows and pages the church listing.
type ListChurchesInput struct {
	Statuses   []enums.ChurchStatus
	Search     string
	Pagination pagination.Params
}

// UpdateChurchInput holds optional profile mutations. Status and phase are
// changed through their own operations, never here.
type UpdateChurchInput struct {
	Name         *string
	City         *string
	State        *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Website      *string
	Notes        *string
	ActorEmail   string
}

// TransitionInput moves a church to a target status. The pipeline graph is
// complete: any target is accepted, the linear sequence is only a suggestion.
type TransitionInput struct {
	Target     enums.ChurchStatus
	TierName   *string
	SendEmail  bool
	Note       *string
	ActorEmail string
}

// BulkTransitionInput applies one target status across many churches.
type BulkTransitionInput struct {
	ChurchIDs  []uuid.UUID
	Target     enums.ChurchStatus
	SendEmail  bool
	ActorEmail string
}

// AdvancePhaseInput moves the church's current_phase pointer.
type AdvancePhaseInput struct {
	PhaseNumber int
	ActorEmail  string
}

// SetPhaseDatesInput stamps the start/target dates for one phase.
type SetPhaseDatesInput struct {
	PhaseNumber int
	Dates       models.PhaseDates
	ActorEmail  string
}

type churchStore interface {
	Create(ctx context.Context, church *models.Church) (*models.Church, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Church, error)
	Update(ctx context.Context, church *models.Church) (*models.Church, error)
}

type phaseCatalog interface {
	FindPhaseByNumber(ctx context.Context, phaseNumber int) (*models.Phase, error)
}

type auditTrail interface {
	Record(ctx context.Context, entry auditlog.Entry)
}

type notifier interface {
	StatusChanged(ctx context.Context, church *models.Church, recipient, name string, newStatus enums.ChurchStatus)
	TierConfirmed(ctx context.Context, church *models.Church, recipient, name, tierName string)
	ProposalSent(ctx context.Context, church *models.Church, recipient, name string)
}

// statusSnapshot is the audit shape for pipeline moves.
type statusSnapshot struct {
	Status enums.ChurchStatus `json:"status"`
}

type phaseSnapshot struct {
	CurrentPhase int `json:"current_phase"`
}

type service struct {
	repo   churchStore
	phases phaseCatalog
	audit  auditTrail
	notify notifier
	logg   *logger.Logger
}

// NewService constructs the church service.
func NewService(repo churchStore, phases phaseCatalog, audit auditTrail, notify notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("church repository required")
	}
	if phases == nil {
		return nil, fmt.Errorf("phase catalog required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit trail required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, phases: phases, audit: audit, notify: notify, logg: logg}, nil
}

// CreateChurch inserts a new prospect church.
func (s *service) CreateChurch(ctx context.Context, input CreateChurchInput) (*ChurchDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "church name is required")
	}

	church := &models.Church{
		Name:         name,
		City:         input.City,
		State:        input.State,
		ContactName:  input.ContactName,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		Website:      input.Website,
		Status:       enums.ChurchStatusProspect,
		CurrentPhase: 0,
		Notes:        input.Notes,
	}

	created, err := s.repo.Create(ctx, church)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert church")
	}

	s.audit.Record(ctx, auditlog.Entry{
		ActorEmail: input.ActorEmail,
		Action:     "church_created",
		ChurchID:   &created.ID,
		New:        statusSnapshot{Status: created.Status},
	})

	return NewChurchDTO(created), nil
}

// GetChurch loads one church.
func (s *service) GetChurch(ctx context.Context, id uuid.UUID) (*ChurchDTO, error) {
	church, err := s.loadChurch(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewChurchDTO(church), nil
}

// ListChurches returns one page of churches plus the cursor for the next.
func (s *service) ListChurches(ctx context.Context, input ListChurchesInput) (*ChurchListResult, error) {
	for _, status := range input.Statuses {
		if !status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status filter %q", status))
		}
	}

	rows, err := s.repo.List(ctx, ListFilters{Statuses: input.Statuses, Search: input.Search}, input.Pagination)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list churches")
	}

	limit := pagination.NormalizeLimit(input.Pagination.Limit)
	result := &ChurchListResult{Churches: make([]ChurchDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Churches = append(result.Churches, *NewChurchDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}

// UpdateChurch applies profile edits.
func (s *service) UpdateChurch(ctx context.Context, id uuid.UUID, input UpdateChurchInput) (*ChurchDTO, error) {
	church, err := s.loadChurch(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "church name cannot be empty")
		}
		church.Name = name
	}
	if input.City != nil {
		church.City = input.City
	}
	if input.State != nil {
		church.State = input.State
	}
	if input.ContactName != nil {
		church.ContactName = input.ContactName
	}
	if input.ContactEmail != nil {
		church.ContactEmail = input.ContactEmail
	}
	if input.ContactPhone != nil {
		church.ContactPhone = input.ContactPhone
	}
	if input.Website != nil {
		church.Website = input.Website
	}
	if input.Notes != nil {
		church.Notes = input.Notes
	}

	updated, err := s.repo.Update(ctx, church)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update church")
	}
	return NewChurchDTO(updated), nil
}

// Transition moves the church to the target status, applies side effects
// keyed on the target, and audit-logs the move. Writing the same status a
// church already holds is a successful no-op write, not an error.
func (s *service) Transition(ctx context.Context, id uuid.UUID, input TransitionInput) (*ChurchDTO, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target status %q", input.Target))
	}

	church, err := s.loadChurch(ctx, id)
	if err != nil {
		return nil, err
	}

	oldStatus := church.Status
	church.Status = input.Target

	tierStamped := ""
	if input.Target == enums.ChurchStatusAwaitingStrategy && input.TierName != nil {
		if tier := strings.TrimSpace(*input.TierName); tier != "" {
			church.TierName = &tier
			tierStamped = tier
		}
	}

	updated, err := s.repo.Update(ctx, church)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update church status")
	}

	s.sendTransitionEmails(ctx, updated, input, tierStamped)

	s.audit.Record(ctx, auditlog.Entry{
		ActorEmail: input.ActorEmail,
		Action:     "status_changed",
		ChurchID:   &updated.ID,
		Old:        statusSnapshot{Status: oldStatus},
		New:        statusSnapshot{Status: updated.Status},
		Note:       input.Note,
	})

	return NewChurchDTO(updated), nil
}

// sendTransitionEmails fires the notifications a target status calls for.
// All sends are best-effort inside the notifier.
func (s *service) sendTransitionEmails(ctx context.Context, church *models.Church, input TransitionInput, tierStamped string) {
	recipient, name := contact(church)

	if tierStamped != "" {
		s.notify.TierConfirmed(ctx, church, recipient, name, tierStamped)
		return
	}
	if !input.SendEmail {
		return
	}
	switch input.Target {
	case enums.ChurchStatusProposalSent:
		s.notify.ProposalSent(ctx, church, recipient, name)
	case enums.ChurchStatusActive:
		s.notify.StatusChanged(ctx, church, recipient, name, input.Target)
	}
}

// BulkTransition applies one target across many churches, tallying per-item
// outcomes instead of aborting on the first failure.
func (s *service) BulkTransition(ctx context.Context, input BulkTransitionInput) (*types.BatchTally, error) {
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid target status %q", input.Target))
	}
	if len(input.ChurchIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one church id is required")
	}

	tally := &types.BatchTally{}
	var combined error
	for _, churchID := range input.ChurchIDs {
		_, err := s.Transition(ctx, churchID, TransitionInput{
			Target:     input.Target,
			SendEmail:  input.SendEmail,
			ActorEmail: input.ActorEmail,
		})
		if err != nil {
			tally.Failed++
			tally.Errors = append(tally.Errors, fmt.Sprintf("%s: %s", churchID, err.Error()))
			combined = multierr.Append(combined, fmt.Errorf("church %s: %w", churchID, err))
			continue
		}
		tally.Succeeded++
	}

	if combined != nil {
		logCtx := s.logg.WithField(ctx, "target_status", input.Target.String())
		s.logg.Error(logCtx, "bulk transition completed with failures", combined)
	}
	return tally, nil
}

// AdvancePhase moves the current_phase pointer. The target must reference an
// existing phase template.
func (s *service) AdvancePhase(ctx context.Context, id uuid.UUID, input AdvancePhaseInput) (*ChurchDTO, error) {
	if _, err := s.phases.FindPhaseByNumber(ctx, input.PhaseNumber); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("phase %d does not exist", input.PhaseNumber))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load phase template")
	}

	church, err := s.loadChurch(ctx, id)
	if err != nil {
		return nil, err
	}

	oldPhase := church.CurrentPhase
	church.CurrentPhase = input.PhaseNumber

	updated, err := s.repo.Update(ctx, church)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update current phase")
	}

	s.audit.Record(ctx, auditlog.Entry{
		ActorEmail: input.ActorEmail,
		Action:     "phase_advanced",
		ChurchID:   &updated.ID,
		Old:        phaseSnapshot{CurrentPhase: oldPhase},
		New:        phaseSnapshot{CurrentPhase: updated.CurrentPhase},
	})

	return NewChurchDTO(updated), nil
}

// SetPhaseDates stamps the start/target date pair for one phase.
func (s *service) SetPhaseDates(ctx context.Context, id uuid.UUID, input SetPhaseDatesInput) (*ChurchDTO, error) {
	if _, err := s.phases.FindPhaseByNumber(ctx, input.PhaseNumber); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("phase %d does not exist", input.PhaseNumber))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load phase template")
	}

	church, err := s.loadChurch(ctx, id)
	if err != nil {
		return nil, err
	}

	dates := church.PhaseDates.Data()
	if dates == nil {
		dates = map[string]models.PhaseDates{}
	}
	dates[strconv.Itoa(input.PhaseNumber)] = input.Dates
	church.PhaseDates = datatypes.NewJSONType(dates)

	updated, err := s.repo.Update(ctx, church)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update phase dates")
	}
	return NewChurchDTO(updated), nil
}

func (s *service) loadChurch(ctx context.Context, id uuid.UUID) (*models.Church, error) {
	church, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church")
	}
	return church, nil
}

func contact(church *models.Church) (email, name string) {
	if church.ContactEmail != nil {
		email = *church.ContactEmail
	}
	if church.ContactName != nil {
		name = *church.ContactName
	}
	return email, name
}
