package progress

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

// Service aggregates milestone progress and applies toggles.
type Service interface {
	Summary(ctx context.Context, churchID uuid.UUID) (*SummaryDTO, error)
	Toggle(ctx context.Context, churchID, milestoneID uuid.UUID, input ToggleInput) (*MilestoneDTO, error)
	SetTargetDate(ctx context.Context, churchID, milestoneID uuid.UUID, targetDate *time.Time) (*MilestoneDTO, error)
	SetNotes(ctx context.Context, churchID, milestoneID uuid.UUID, notes *string) (*MilestoneDTO, error)
}

// ToggleInput flips a milestone's completion for a church.
type ToggleInput struct {
	Completed  bool
	ActorEmail string
}

type progressStore interface {
	ListPhases(ctx context.Context) ([]models.Phase, error)
	ListMilestones(ctx context.Context) ([]models.Milestone, error)
	ListMilestonesByPhase(ctx context.Context, phaseID uuid.UUID) ([]models.Milestone, error)
	FindMilestone(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	FindPhaseByID(ctx context.Context, id uuid.UUID) (*models.Phase, error)
	ListProgress(ctx context.Context, churchID uuid.UUID) ([]models.MilestoneProgress, error)
	FindProgress(ctx context.Context, churchID, milestoneID uuid.UUID) (*models.MilestoneProgress, error)
	CreateProgress(ctx context.Context, row *models.MilestoneProgress) (*models.MilestoneProgress, error)
	UpdateProgress(ctx context.Context, row *models.MilestoneProgress) (*models.MilestoneProgress, error)
}

type churchLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
}

type notifier interface {
	MilestoneCompleted(ctx context.Context, church *models.Church, recipient, milestoneTitle, completedBy string, phaseNumber int)
	PhaseCompleted(ctx context.Context, church *models.Church, recipient string, phaseNumber int, phaseTitle string)
}

type service struct {
	repo       progressStore
	churchRepo churchLoader
	notify     notifier
	logg       *logger.Logger
	adminEmail string
}

// NewService constructs the progress service. adminEmail receives the
// milestone-completed notifications.
func NewService(repo progressStore, churchRepo churchLoader, notify notifier, logg *logger.Logger, adminEmail string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("progress repository required")
	}
	if churchRepo == nil {
		return nil, fmt.Errorf("church repository required")
	}
	if notify == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, churchRepo: churchRepo, notify: notify, logg: logg, adminEmail: adminEmail}, nil
}

// Summary builds the per-phase progress view. The headline percentage counts
// implementation phases only; phase 0 keeps its own bar but stays out of the
// headline.
func (s *service) Summary(ctx context.Context, churchID uuid.UUID) (*SummaryDTO, error) {
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}

	phases, err := s.repo.ListPhases(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list phases")
	}
	milestones, err := s.repo.ListMilestones(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list milestones")
	}
	rows, err := s.repo.ListProgress(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list milestone progress")
	}

	progressByMilestone := make(map[uuid.UUID]*models.MilestoneProgress, len(rows))
	for i := range rows {
		progressByMilestone[rows[i].MilestoneID] = &rows[i]
	}
	milestonesByPhase := make(map[uuid.UUID][]models.Milestone, len(phases))
	for _, milestone := range milestones {
		milestonesByPhase[milestone.PhaseID] = append(milestonesByPhase[milestone.PhaseID], milestone)
	}

	today := time.Now()
	phaseDates := church.PhaseDates.Data()
	summary := &SummaryDTO{
		ChurchID:     churchID,
		CurrentPhase: church.CurrentPhase,
		Phases:       make([]PhaseSummaryDTO, 0, len(phases)),
	}

	var headlineCompleted, headlineTotal int
	for i := range phases {
		phase := phases[i]
		phaseDTO := PhaseSummaryDTO{
			PhaseNumber: phase.PhaseNumber,
			Title:       phase.Title,
			Status:      enums.PhaseStatusFor(phase.PhaseNumber, church.CurrentPhase),
			Milestones:  []MilestoneDTO{},
		}
		if dates, ok := phaseDates[strconv.Itoa(phase.PhaseNumber)]; ok {
			copied := dates
			phaseDTO.Dates = &copied
		}

		for j := range milestonesByPhase[phase.ID] {
			milestone := milestonesByPhase[phase.ID][j]
			row := progressByMilestone[milestone.ID]
			dto := NewMilestoneDTO(&milestone, row, today)
			phaseDTO.TotalCount++
			if dto.Completed {
				phaseDTO.CompletedCount++
			}
			phaseDTO.Milestones = append(phaseDTO.Milestones, dto)
		}

		if phase.PhaseNumber > 0 {
			headlineCompleted += phaseDTO.CompletedCount
			headlineTotal += phaseDTO.TotalCount
		}
		summary.Phases = append(summary.Phases, phaseDTO)
	}

	if headlineTotal > 0 {
		summary.OverallPercent = int(math.Round(100 * float64(headlineCompleted) / float64(headlineTotal)))
	}
	return summary, nil
}

// Toggle flips completion for a milestone. Only milestones in a current or
// completed phase are interactive; toggles in upcoming or locked phases are
// rejected without any write.
func (s *service) Toggle(ctx context.Context, churchID, milestoneID uuid.UUID, input ToggleInput) (*MilestoneDTO, error) {
	church, err := s.loadChurch(ctx, churchID)
	if err != nil {
		return nil, err
	}
	milestone, phase, err := s.loadMilestoneWithPhase(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	phaseStatus := enums.PhaseStatusFor(phase.PhaseNumber, church.CurrentPhase)
	if !phaseStatus.Interactive() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "milestone phase is not yet active").
			WithDetails(map[string]any{"phase_status": phaseStatus.String()})
	}

	row, err := s.ensureProgressRow(ctx, churchID, milestoneID)
	if err != nil {
		return nil, err
	}

	wasCompleted := row.Completed
	if input.Completed {
		now := time.Now()
		actor := input.ActorEmail
		row.Completed = true
		row.CompletedBy = &actor
		row.CompletedAt = &now
	} else {
		row.Completed = false
		row.CompletedBy = nil
		row.CompletedAt = nil
	}

	updated, err := s.repo.UpdateProgress(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update milestone progress")
	}

	if input.Completed && !wasCompleted {
		s.notify.MilestoneCompleted(ctx, church, s.adminEmail, milestone.Title, input.ActorEmail, phase.PhaseNumber)
		s.notifyIfPhaseComplete(ctx, church, phase)
	}

	dto := NewMilestoneDTO(milestone, updated, time.Now())
	return &dto, nil
}

// SetTargetDate stamps or clears the target date on a progress row, creating
// the row lazily when needed.
func (s *service) SetTargetDate(ctx context.Context, churchID, milestoneID uuid.UUID, targetDate *time.Time) (*MilestoneDTO, error) {
	return s.updateDetails(ctx, churchID, milestoneID, func(row *models.MilestoneProgress) {
		row.TargetDate = targetDate
	})
}

// SetNotes stores leader notes on a progress row.
func (s *service) SetNotes(ctx context.Context, churchID, milestoneID uuid.UUID, notes *string) (*MilestoneDTO, error) {
	return s.updateDetails(ctx, churchID, milestoneID, func(row *models.MilestoneProgress) {
		row.Notes = notes
	})
}

func (s *service) updateDetails(ctx context.Context, churchID, milestoneID uuid.UUID, apply func(*models.MilestoneProgress)) (*MilestoneDTO, error) {
	if _, err := s.loadChurch(ctx, churchID); err != nil {
		return nil, err
	}
	milestone, _, err := s.loadMilestoneWithPhase(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	row, err := s.ensureProgressRow(ctx, churchID, milestoneID)
	if err != nil {
		return nil, err
	}

	apply(row)
	updated, err := s.repo.UpdateProgress(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update milestone progress")
	}

	dto := NewMilestoneDTO(milestone, updated, time.Now())
	return &dto, nil
}

// notifyIfPhaseComplete fires the phase-completed email once every milestone
// in the phase is done. Best-effort inside the notifier.
func (s *service) notifyIfPhaseComplete(ctx context.Context, church *models.Church, phase *models.Phase) {
	milestones, err := s.repo.ListMilestonesByPhase(ctx, phase.ID)
	if err != nil {
		s.logg.Error(ctx, "failed to check phase completion", err)
		return
	}
	if len(milestones) == 0 {
		return
	}
	rows, err := s.repo.ListProgress(ctx, church.ID)
	if err != nil {
		s.logg.Error(ctx, "failed to check phase completion", err)
		return
	}

	completed := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		if row.Completed {
			completed[row.MilestoneID] = true
		}
	}
	for _, milestone := range milestones {
		if !completed[milestone.ID] {
			return
		}
	}

	recipient := ""
	if church.ContactEmail != nil {
		recipient = *church.ContactEmail
	}
	s.notify.PhaseCompleted(ctx, church, recipient, phase.PhaseNumber, phase.Title)
}

func (s *service) ensureProgressRow(ctx context.Context, churchID, milestoneID uuid.UUID) (*models.MilestoneProgress, error) {
	row, err := s.repo.FindProgress(ctx, churchID, milestoneID)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load milestone progress")
	}

	created, err := s.repo.CreateProgress(ctx, &models.MilestoneProgress{
		ChurchID:    churchID,
		MilestoneID: milestoneID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create milestone progress")
	}
	return created, nil
}

func (s *service) loadMilestoneWithPhase(ctx context.Context, milestoneID uuid.UUID) (*models.Milestone, *models.Phase, error) {
	milestone, err := s.repo.FindMilestone(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "milestone not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load milestone")
	}
	phase, err := s.repo.FindPhaseByID(ctx, milestone.PhaseID)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load phase for milestone")
	}
	return milestone, phase, nil
}

func (s *service) loadChurch(ctx context.Context, churchID uuid.UUID) (*models.Church, error) {
	church, err := s.churchRepo.FindByID(ctx, churchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church")
	}
	return church, nil
}
