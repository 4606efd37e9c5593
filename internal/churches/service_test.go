package churches

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/internal/auditlog"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
)

type fakeChurchStore struct {
	churches map[uuid.UUID]*models.Church
	saveErr  error
}

func newFakeChurchStore(churches ...*models.Church) *fakeChurchStore {
	store := &fakeChurchStore{churches: map[uuid.UUID]*models.Church{}}
	for _, church := range churches {
		store.churches[church.ID] = church
	}
	return store
}

func (f *fakeChurchStore) Create(_ context.Context, church *models.Church) (*models.Church, error) {
	if church.ID == uuid.Nil {
		church.ID = uuid.New()
	}
	f.churches[church.ID] = church
	return church, nil
}

func (f *fakeChurchStore) FindByID(_ context.Context, id uuid.UUID) (*models.Church, error) {
	church, ok := f.churches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *church
	return &copied, nil
}

func (f *fakeChurchStore) List(_ context.Context, _ ListFilters, _ pagination.Params) ([]models.Church, error) {
	var out []models.Church
	for _, church := range f.churches {
		out = append(out, *church)
	}
	return out, nil
}

func (f *fakeChurchStore) Update(_ context.Context, church *models.Church) (*models.Church, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.churches[church.ID] = church
	return church, nil
}

type fakePhaseCatalog struct {
	known map[int]bool
}

func (f *fakePhaseCatalog) FindPhaseByNumber(_ context.Context, phaseNumber int) (*models.Phase, error) {
	if !f.known[phaseNumber] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Phase{ID: uuid.New(), PhaseNumber: phaseNumber}, nil
}

type fakeAuditTrail struct {
	entries []auditlog.Entry
}

func (f *fakeAuditTrail) Record(_ context.Context, entry auditlog.Entry) {
	f.entries = append(f.entries, entry)
}

type notifyCall struct {
	kind   string
	target enums.ChurchStatus
	tier   string
}

type fakeNotifier struct {
	calls []notifyCall
}

func (f *fakeNotifier) StatusChanged(_ context.Context, _ *models.Church, _, _ string, newStatus enums.ChurchStatus) {
	f.calls = append(f.calls, notifyCall{kind: "status_changed", target: newStatus})
}

func (f *fakeNotifier) TierConfirmed(_ context.Context, _ *models.Church, _, _, tierName string) {
	f.calls = append(f.calls, notifyCall{kind: "tier_confirmed", tier: tierName})
}

func (f *fakeNotifier) ProposalSent(_ context.Context, _ *models.Church, _, _ string) {
	f.calls = append(f.calls, notifyCall{kind: "proposal_sent"})
}

type testDeps struct {
	store    *fakeChurchStore
	phases   *fakePhaseCatalog
	audit    *fakeAuditTrail
	notifier *fakeNotifier
}

func buildTestService(t *testing.T, churches ...*models.Church) (Service, *testDeps) {
	t.Helper()
	deps := &testDeps{
		store:    newFakeChurchStore(churches...),
		phases:   &fakePhaseCatalog{known: map[int]bool{0: true, 1: true, 2: true}},
		audit:    &fakeAuditTrail{},
		notifier: &fakeNotifier{},
	}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(deps.store, deps.phases, deps.audit, deps.notifier, logg)
	require.NoError(t, err)
	return svc, deps
}

func testChurch(status enums.ChurchStatus) *models.Church {
	email := "leader@example.com"
	name := "Pat Leader"
	return &models.Church{
		ID:           uuid.New(),
		Name:         "Grace Fellowship",
		ContactEmail: &email,
		ContactName:  &name,
		Status:       status,
	}
}

func TestCreateChurchStartsAsProspect(t *testing.T) {
	svc, deps := buildTestService(t)

	dto, err := svc.CreateChurch(context.Background(), CreateChurchInput{
		Name:       "New Hope",
		ActorEmail: "admin@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, enums.ChurchStatusProspect, dto.Status)
	require.Equal(t, 0, dto.CurrentPhase)
	require.NotNil(t, dto.NextStatus)
	require.Equal(t, enums.ChurchStatusDemo, *dto.NextStatus)

	require.Len(t, deps.audit.entries, 1)
	require.Equal(t, "church_created", deps.audit.entries[0].Action)
}

func TestTransitionWritesAuditEntry(t *testing.T) {
	church := testChurch(enums.ChurchStatusProspect)
	svc, deps := buildTestService(t, church)

	dto, err := svc.Transition(context.Background(), church.ID, TransitionInput{
		Target:     enums.ChurchStatusDemo,
		ActorEmail: "admin@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, enums.ChurchStatusDemo, dto.Status)

	require.Len(t, deps.audit.entries, 1)
	entry := deps.audit.entries[0]
	require.Equal(t, "status_changed", entry.Action)
	require.Equal(t, "admin@example.com", entry.ActorEmail)
	require.Equal(t, statusSnapshot{Status: enums.ChurchStatusProspect}, entry.Old)
	require.Equal(t, statusSnapshot{Status: enums.ChurchStatusDemo}, entry.New)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	church := testChurch(enums.ChurchStatusProspect)
	svc, _ := buildTestService(t, church)

	_, err := svc.Transition(context.Background(), church.ID, TransitionInput{Target: "launched"})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestTransitionUnknownChurchIsNotFound(t *testing.T) {
	svc, _ := buildTestService(t)

	_, err := svc.Transition(context.Background(), uuid.New(), TransitionInput{Target: enums.ChurchStatusDemo})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestTransitionStampsTierAndSendsConfirmation(t *testing.T) {
	church := testChurch(enums.ChurchStatusAwaitingAgreement)
	svc, deps := buildTestService(t, church)
	tier := "Tier 2"

	dto, err := svc.Transition(context.Background(), church.ID, TransitionInput{
		Target:     enums.ChurchStatusAwaitingStrategy,
		TierName:   &tier,
		ActorEmail: "admin@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, dto.TierName)
	require.Equal(t, "Tier 2", *dto.TierName)

	require.Len(t, deps.notifier.calls, 1)
	require.Equal(t, "tier_confirmed", deps.notifier.calls[0].kind)
	require.Equal(t, "Tier 2", deps.notifier.calls[0].tier)
}

func TestTransitionEmailOnlyWhenRequested(t *testing.T) {
	church := testChurch(enums.ChurchStatusAwaitingDiscovery)
	svc, deps := buildTestService(t, church)

	_, err := svc.Transition(context.Background(), church.ID, TransitionInput{
		Target: enums.ChurchStatusProposalSent,
	})
	require.NoError(t, err)
	require.Empty(t, deps.notifier.calls)

	_, err = svc.Transition(context.Background(), church.ID, TransitionInput{
		Target:    enums.ChurchStatusProposalSent,
		SendEmail: true,
	})
	require.NoError(t, err)
	require.Len(t, deps.notifier.calls, 1)
	require.Equal(t, "proposal_sent", deps.notifier.calls[0].kind)
}

func TestBulkTransitionCountsNoOpsAsSuccess(t *testing.T) {
	churches := []*models.Church{
		testChurch(enums.ChurchStatusProspect),
		testChurch(enums.ChurchStatusDemo),
		testChurch(enums.ChurchStatusActive),
		testChurch(enums.ChurchStatusActive),
		testChurch(enums.ChurchStatusPaused),
	}
	svc, _ := buildTestService(t, churches...)

	ids := make([]uuid.UUID, 0, len(churches))
	for _, church := range churches {
		ids = append(ids, church.ID)
	}

	tally, err := svc.BulkTransition(context.Background(), BulkTransitionInput{
		ChurchIDs:  ids,
		Target:     enums.ChurchStatusActive,
		ActorEmail: "admin@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, 5, tally.Succeeded)
	require.Equal(t, 0, tally.Failed)
	require.Empty(t, tally.Errors)
}

func TestBulkTransitionTalliesFailuresWithoutAborting(t *testing.T) {
	known := testChurch(enums.ChurchStatusProspect)
	svc, _ := buildTestService(t, known)

	tally, err := svc.BulkTransition(context.Background(), BulkTransitionInput{
		ChurchIDs: []uuid.UUID{known.ID, uuid.New()},
		Target:    enums.ChurchStatusDemo,
	})
	require.NoError(t, err)
	require.Equal(t, 1, tally.Succeeded)
	require.Equal(t, 1, tally.Failed)
	require.Len(t, tally.Errors, 1)
}

func TestAdvancePhaseRequiresExistingTemplate(t *testing.T) {
	church := testChurch(enums.ChurchStatusActive)
	svc, deps := buildTestService(t, church)

	_, err := svc.AdvancePhase(context.Background(), church.ID, AdvancePhaseInput{PhaseNumber: 9})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	dto, err := svc.AdvancePhase(context.Background(), church.ID, AdvancePhaseInput{
		PhaseNumber: 2,
		ActorEmail:  "admin@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, 2, dto.CurrentPhase)
	require.Equal(t, "phase_advanced", deps.audit.entries[len(deps.audit.entries)-1].Action)
}

func TestSetPhaseDatesStoresPerPhasePair(t *testing.T) {
	church := testChurch(enums.ChurchStatusActive)
	svc, _ := buildTestService(t, church)

	start := church.CreatedAt
	dto, err := svc.SetPhaseDates(context.Background(), church.ID, SetPhaseDatesInput{
		PhaseNumber: 1,
		Dates:       models.PhaseDates{Start: &start},
	})
	require.NoError(t, err)
	require.Contains(t, dto.PhaseDates, "1")
	require.NotNil(t, dto.PhaseDates["1"].Start)
}
