package launchguide

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
)

type fakeGuideStore struct {
	rows map[int]*models.LaunchGuidePhaseProgress // keyed by phase number
}

func (f *fakeGuideStore) FindProgress(_ context.Context, userID uuid.UUID, phaseNumber int) (*models.LaunchGuidePhaseProgress, error) {
	if row, ok := f.rows[phaseNumber]; ok && row.UserID == userID {
		copied := *row
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeGuideStore) Create(_ context.Context, row *models.LaunchGuidePhaseProgress) (*models.LaunchGuidePhaseProgress, error) {
	row.ID = uuid.New()
	f.rows[row.PhaseNumber] = row
	return row, nil
}

func (f *fakeGuideStore) Update(_ context.Context, row *models.LaunchGuidePhaseProgress) (*models.LaunchGuidePhaseProgress, error) {
	f.rows[row.PhaseNumber] = row
	return row, nil
}

func buildGuideService(t *testing.T) (Service, uuid.UUID) {
	t.Helper()
	svc, err := NewService(&fakeGuideStore{rows: map[int]*models.LaunchGuidePhaseProgress{}})
	require.NoError(t, err)
	return svc, uuid.New()
}

func TestGetPhaseUnknownNumberIsNotFound(t *testing.T) {
	svc, userID := buildGuideService(t)

	_, err := svc.GetPhase(context.Background(), userID, 99)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestReadyToCompleteRequiresEverySectionCheck(t *testing.T) {
	svc, userID := buildGuideService(t)
	template, _ := TemplateFor(1)
	checks := template.SectionCheckIDs()
	require.NotEmpty(t, checks)

	var dto *PhaseProgressDTO
	var err error
	for _, checkID := range checks[:len(checks)-1] {
		dto, err = svc.ToggleSectionCheck(context.Background(), userID, 1, checkID, true)
		require.NoError(t, err)
		require.False(t, dto.ReadyToComplete)
	}

	dto, err = svc.ToggleSectionCheck(context.Background(), userID, 1, checks[len(checks)-1], true)
	require.NoError(t, err)
	// Phase 1 has no checklist, so section checks alone gate completion.
	require.True(t, dto.ReadyToComplete)
}

func TestReadyToCompleteRequiresChecklistWhenPresent(t *testing.T) {
	svc, userID := buildGuideService(t)
	template, _ := TemplateFor(2)
	require.NotEmpty(t, template.ChecklistItems)

	for _, checkID := range template.SectionCheckIDs() {
		_, err := svc.ToggleSectionCheck(context.Background(), userID, 2, checkID, true)
		require.NoError(t, err)
	}
	dto, err := svc.GetPhase(context.Background(), userID, 2)
	require.NoError(t, err)
	require.False(t, dto.ReadyToComplete)

	for _, item := range template.ChecklistItems {
		dto, err = svc.ToggleChecklistItem(context.Background(), userID, 2, item.ID, true)
		require.NoError(t, err)
	}
	require.True(t, dto.ReadyToComplete)
}

func TestCompletePhaseGatedUntilReady(t *testing.T) {
	svc, userID := buildGuideService(t)

	_, err := svc.CompletePhase(context.Background(), userID, 1)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	template, _ := TemplateFor(1)
	for _, checkID := range template.SectionCheckIDs() {
		_, err = svc.ToggleSectionCheck(context.Background(), userID, 1, checkID, true)
		require.NoError(t, err)
	}

	dto, err := svc.CompletePhase(context.Background(), userID, 1)
	require.NoError(t, err)
	require.NotNil(t, dto.CompletedAt)
	require.NotNil(t, dto.NextPhase)
	require.Equal(t, 2, *dto.NextPhase)
}

func TestUncheckingReopensTheGate(t *testing.T) {
	svc, userID := buildGuideService(t)
	template, _ := TemplateFor(1)
	checks := template.SectionCheckIDs()

	for _, checkID := range checks {
		_, err := svc.ToggleSectionCheck(context.Background(), userID, 1, checkID, true)
		require.NoError(t, err)
	}
	dto, err := svc.ToggleSectionCheck(context.Background(), userID, 1, checks[0], false)
	require.NoError(t, err)
	require.False(t, dto.ReadyToComplete)
}

func TestSaveUserDataValidatesFieldID(t *testing.T) {
	svc, userID := buildGuideService(t)

	_, err := svc.SaveUserData(context.Background(), userID, 1, "bogus_field", "value")
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	dto, err := svc.SaveUserData(context.Background(), userID, 1, "p1_vision_statement", "Make disciples who make disciples")
	require.NoError(t, err)
	require.Equal(t, "Make disciples who make disciples", dto.UserData["p1_vision_statement"])
}

func TestToggleSectionCheckIsIdempotent(t *testing.T) {
	svc, userID := buildGuideService(t)
	template, _ := TemplateFor(1)
	checkID := template.SectionCheckIDs()[0]

	for i := 0; i < 2; i++ {
		dto, err := svc.ToggleSectionCheck(context.Background(), userID, 1, checkID, true)
		require.NoError(t, err)
		require.Equal(t, []string{checkID}, dto.CompletedSectionChecks)
	}
}
