package progress

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type fakeProgressStore struct {
	phases     []models.Phase
	milestones []models.Milestone
	progress   map[uuid.UUID]*models.MilestoneProgress // keyed by milestone id
	writes     int
}

func (f *fakeProgressStore) ListPhases(_ context.Context) ([]models.Phase, error) {
	return f.phases, nil
}

func (f *fakeProgressStore) ListMilestones(_ context.Context) ([]models.Milestone, error) {
	return f.milestones, nil
}

func (f *fakeProgressStore) ListMilestonesByPhase(_ context.Context, phaseID uuid.UUID) ([]models.Milestone, error) {
	var out []models.Milestone
	for _, milestone := range f.milestones {
		if milestone.PhaseID == phaseID {
			out = append(out, milestone)
		}
	}
	return out, nil
}

func (f *fakeProgressStore) FindMilestone(_ context.Context, id uuid.UUID) (*models.Milestone, error) {
	for i := range f.milestones {
		if f.milestones[i].ID == id {
			return &f.milestones[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProgressStore) FindPhaseByID(_ context.Context, id uuid.UUID) (*models.Phase, error) {
	for i := range f.phases {
		if f.phases[i].ID == id {
			return &f.phases[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProgressStore) ListProgress(_ context.Context, churchID uuid.UUID) ([]models.MilestoneProgress, error) {
	var out []models.MilestoneProgress
	for _, row := range f.progress {
		if row.ChurchID == churchID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeProgressStore) FindProgress(_ context.Context, churchID, milestoneID uuid.UUID) (*models.MilestoneProgress, error) {
	if row, ok := f.progress[milestoneID]; ok && row.ChurchID == churchID {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProgressStore) CreateProgress(_ context.Context, row *models.MilestoneProgress) (*models.MilestoneProgress, error) {
	row.ID = uuid.New()
	f.progress[row.MilestoneID] = row
	f.writes++
	return row, nil
}

func (f *fakeProgressStore) UpdateProgress(_ context.Context, row *models.MilestoneProgress) (*models.MilestoneProgress, error) {
	f.progress[row.MilestoneID] = row
	f.writes++
	return row, nil
}

type fakeChurchLoader struct {
	church *models.Church
}

func (f *fakeChurchLoader) FindByID(_ context.Context, id uuid.UUID) (*models.Church, error) {
	if f.church == nil || f.church.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.church
	return &copied, nil
}

type progressNotifyCall struct {
	kind        string
	phaseNumber int
}

type fakeProgressNotifier struct {
	calls []progressNotifyCall
}

func (f *fakeProgressNotifier) MilestoneCompleted(_ context.Context, _ *models.Church, _, _, _ string, phaseNumber int) {
	f.calls = append(f.calls, progressNotifyCall{kind: "milestone", phaseNumber: phaseNumber})
}

func (f *fakeProgressNotifier) PhaseCompleted(_ context.Context, _ *models.Church, _ string, phaseNumber int, _ string) {
	f.calls = append(f.calls, progressNotifyCall{kind: "phase", phaseNumber: phaseNumber})
}

type fixture struct {
	svc      Service
	store    *fakeProgressStore
	notifier *fakeProgressNotifier
	church   *models.Church
	phases   map[int]models.Phase
}

// buildFixture seeds phases 0..2. Phase 0 has one milestone, phases 1 and 2
// have two each.
func buildFixture(t *testing.T, currentPhase int) *fixture {
	t.Helper()

	email := "leader@example.com"
	church := &models.Church{ID: uuid.New(), Name: "Grace Fellowship", CurrentPhase: currentPhase, ContactEmail: &email}

	store := &fakeProgressStore{progress: map[uuid.UUID]*models.MilestoneProgress{}}
	phases := map[int]models.Phase{}
	counts := map[int]int{0: 1, 1: 2, 2: 2}
	for number := 0; number <= 2; number++ {
		phase := models.Phase{ID: uuid.New(), PhaseNumber: number, Title: "Phase"}
		store.phases = append(store.phases, phase)
		phases[number] = phase
		for position := 0; position < counts[number]; position++ {
			store.milestones = append(store.milestones, models.Milestone{
				ID:       uuid.New(),
				PhaseID:  phase.ID,
				Position: position,
				Title:    "Milestone",
			})
		}
	}

	notifier := &fakeProgressNotifier{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(store, &fakeChurchLoader{church: church}, notifier, logg, "team@example.com")
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, notifier: notifier, church: church, phases: phases}
}

func (f *fixture) milestonesInPhase(number int) []models.Milestone {
	var out []models.Milestone
	for _, milestone := range f.store.milestones {
		if milestone.PhaseID == f.phases[number].ID {
			out = append(out, milestone)
		}
	}
	return out
}

func (f *fixture) complete(t *testing.T, milestoneID uuid.UUID) {
	t.Helper()
	_, err := f.svc.Toggle(context.Background(), f.church.ID, milestoneID, ToggleInput{Completed: true, ActorEmail: "admin@example.com"})
	require.NoError(t, err)
}

func TestSummaryHeadlineExcludesPhaseZero(t *testing.T) {
	fx := buildFixture(t, 1)

	// Phase 0's milestone and one of phase 1's two.
	fx.complete(t, fx.milestonesInPhase(0)[0].ID)
	fx.complete(t, fx.milestonesInPhase(1)[0].ID)

	summary, err := fx.svc.Summary(context.Background(), fx.church.ID)
	require.NoError(t, err)

	// 1 of 4 implementation milestones complete; phase 0 stays out.
	require.Equal(t, 25, summary.OverallPercent)
	for _, phase := range summary.Phases {
		require.LessOrEqual(t, phase.CompletedCount, phase.TotalCount)
	}
	require.Equal(t, 1, summary.Phases[0].CompletedCount)
	require.Equal(t, 1, summary.Phases[0].TotalCount)
}

func TestSummaryPhaseStatuses(t *testing.T) {
	fx := buildFixture(t, 1)

	summary, err := fx.svc.Summary(context.Background(), fx.church.ID)
	require.NoError(t, err)
	require.Equal(t, "completed", summary.Phases[0].Status.String())
	require.Equal(t, "current", summary.Phases[1].Status.String())
	require.Equal(t, "upcoming", summary.Phases[2].Status.String())
}

func TestToggleRejectedForUpcomingAndLockedPhases(t *testing.T) {
	fx := buildFixture(t, 0)

	for _, phaseNumber := range []int{1, 2} {
		milestone := fx.milestonesInPhase(phaseNumber)[0]
		_, err := fx.svc.Toggle(context.Background(), fx.church.ID, milestone.ID, ToggleInput{Completed: true})
		require.Error(t, err)
		require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	}
	// Rejections must not create or mutate any progress row.
	require.Zero(t, fx.store.writes)
	require.Empty(t, fx.store.progress)
}

func TestToggleOnSetsCompletionFieldsAndOffClearsThem(t *testing.T) {
	fx := buildFixture(t, 1)
	milestone := fx.milestonesInPhase(1)[0]

	dto, err := fx.svc.Toggle(context.Background(), fx.church.ID, milestone.ID, ToggleInput{Completed: true, ActorEmail: "admin@example.com"})
	require.NoError(t, err)
	require.True(t, dto.Completed)
	require.NotNil(t, dto.CompletedBy)
	require.Equal(t, "admin@example.com", *dto.CompletedBy)
	require.NotNil(t, dto.CompletedAt)

	dto, err = fx.svc.Toggle(context.Background(), fx.church.ID, milestone.ID, ToggleInput{Completed: false})
	require.NoError(t, err)
	require.False(t, dto.Completed)
	require.Nil(t, dto.CompletedBy)
	require.Nil(t, dto.CompletedAt)

	// The row survives the un-toggle; it is never deleted.
	require.Len(t, fx.store.progress, 1)
}

func TestCompletingLastMilestoneNotifiesPhaseCompleted(t *testing.T) {
	fx := buildFixture(t, 1)
	milestones := fx.milestonesInPhase(1)

	fx.complete(t, milestones[0].ID)
	require.Len(t, fx.notifier.calls, 1)
	require.Equal(t, "milestone", fx.notifier.calls[0].kind)

	fx.complete(t, milestones[1].ID)
	kinds := []string{}
	for _, call := range fx.notifier.calls {
		kinds = append(kinds, call.kind)
	}
	require.Equal(t, []string{"milestone", "milestone", "phase"}, kinds)
}

func TestSetTargetDateCreatesRowLazily(t *testing.T) {
	fx := buildFixture(t, 1)
	milestone := fx.milestonesInPhase(2)[0]
	target := time.Now().Add(720 * time.Hour)

	dto, err := fx.svc.SetTargetDate(context.Background(), fx.church.ID, milestone.ID, &target)
	require.NoError(t, err)
	require.NotNil(t, dto.TargetDate)
	require.False(t, dto.Completed)
	require.Len(t, fx.store.progress, 1)
}

func TestOverdueFlagsOpenPastDueMilestones(t *testing.T) {
	fx := buildFixture(t, 1)
	milestone := fx.milestonesInPhase(1)[0]
	past := time.Now().Add(-48 * time.Hour)

	_, err := fx.svc.SetTargetDate(context.Background(), fx.church.ID, milestone.ID, &past)
	require.NoError(t, err)

	summary, err := fx.svc.Summary(context.Background(), fx.church.ID)
	require.NoError(t, err)
	require.True(t, summary.Phases[1].Milestones[0].Overdue)

	// Completing it clears the flag regardless of the date.
	fx.complete(t, milestone.ID)
	summary, err = fx.svc.Summary(context.Background(), fx.church.ID)
	require.NoError(t, err)
	require.False(t, summary.Phases[1].Milestones[0].Overdue)
}
