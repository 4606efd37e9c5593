package leaders

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/internal/auditlog"
	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type fakeLeaderStore struct {
	churchLeaders map[uuid.UUID]*models.ChurchLeader
	dnaLeaders    map[uuid.UUID]*models.DNALeader
	groups        map[uuid.UUID]*models.DNAGroup
}

func newFakeLeaderStore() *fakeLeaderStore {
	return &fakeLeaderStore{
		churchLeaders: map[uuid.UUID]*models.ChurchLeader{},
		dnaLeaders:    map[uuid.UUID]*models.DNALeader{},
		groups:        map[uuid.UUID]*models.DNAGroup{},
	}
}

func (f *fakeLeaderStore) CreateChurchLeader(_ context.Context, leader *models.ChurchLeader) (*models.ChurchLeader, error) {
	leader.ID = uuid.New()
	f.churchLeaders[leader.ID] = leader
	return leader, nil
}

func (f *fakeLeaderStore) FindChurchLeader(_ context.Context, id uuid.UUID) (*models.ChurchLeader, error) {
	leader, ok := f.churchLeaders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *leader
	return &copied, nil
}

func (f *fakeLeaderStore) ListChurchLeaders(_ context.Context, churchID uuid.UUID) ([]models.ChurchLeader, error) {
	var out []models.ChurchLeader
	for _, leader := range f.churchLeaders {
		if leader.ChurchID == churchID {
			out = append(out, *leader)
		}
	}
	return out, nil
}

func (f *fakeLeaderStore) FindChurchLeadersByEmail(_ context.Context, email string) ([]models.ChurchLeader, error) {
	var out []models.ChurchLeader
	for _, leader := range f.churchLeaders {
		if strings.EqualFold(leader.Email, email) {
			out = append(out, *leader)
		}
	}
	return out, nil
}

func (f *fakeLeaderStore) UpdateChurchLeader(_ context.Context, leader *models.ChurchLeader) (*models.ChurchLeader, error) {
	copied := *leader
	f.churchLeaders[leader.ID] = &copied
	return leader, nil
}

func (f *fakeLeaderStore) CreateDNALeader(_ context.Context, leader *models.DNALeader) (*models.DNALeader, error) {
	leader.ID = uuid.New()
	f.dnaLeaders[leader.ID] = leader
	return leader, nil
}

func (f *fakeLeaderStore) FindDNALeader(_ context.Context, id uuid.UUID) (*models.DNALeader, error) {
	leader, ok := f.dnaLeaders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *leader
	return &copied, nil
}

func (f *fakeLeaderStore) ListDNALeaders(_ context.Context, churchID uuid.UUID) ([]models.DNALeader, error) {
	var out []models.DNALeader
	for _, leader := range f.dnaLeaders {
		if leader.ChurchID == churchID {
			out = append(out, *leader)
		}
	}
	return out, nil
}

func (f *fakeLeaderStore) FindDNALeadersByEmail(_ context.Context, email string) ([]models.DNALeader, error) {
	var out []models.DNALeader
	for _, leader := range f.dnaLeaders {
		if strings.EqualFold(leader.Email, email) {
			out = append(out, *leader)
		}
	}
	return out, nil
}

func (f *fakeLeaderStore) UpdateDNALeader(_ context.Context, leader *models.DNALeader) (*models.DNALeader, error) {
	copied := *leader
	f.dnaLeaders[leader.ID] = &copied
	return leader, nil
}

func (f *fakeLeaderStore) CreateGroup(_ context.Context, group *models.DNAGroup) (*models.DNAGroup, error) {
	group.ID = uuid.New()
	f.groups[group.ID] = group
	return group, nil
}

func (f *fakeLeaderStore) FindGroup(_ context.Context, id uuid.UUID) (*models.DNAGroup, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *group
	return &copied, nil
}

func (f *fakeLeaderStore) ListGroups(_ context.Context, churchID uuid.UUID) ([]models.DNAGroup, error) {
	var out []models.DNAGroup
	for _, group := range f.groups {
		if group.ChurchID == churchID {
			out = append(out, *group)
		}
	}
	return out, nil
}

func (f *fakeLeaderStore) UpdateGroup(_ context.Context, group *models.DNAGroup) (*models.DNAGroup, error) {
	copied := *group
	f.groups[group.ID] = &copied
	return group, nil
}

func (f *fakeLeaderStore) DeleteGroup(_ context.Context, id uuid.UUID) error {
	delete(f.groups, id)
	return nil
}

type fakeChurchSource struct {
	churches map[uuid.UUID]*models.Church
}

func (f *fakeChurchSource) FindByID(_ context.Context, id uuid.UUID) (*models.Church, error) {
	church, ok := f.churches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return church, nil
}

type fakeLinkSender struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeLinkSender) SendLoginLink(_ context.Context, email, _ string) error {
	if f.failFor[strings.ToLower(email)] {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, strings.ToLower(email))
	return nil
}

type fakeLeaderAudit struct {
	entries []auditlog.Entry
}

func (f *fakeLeaderAudit) Record(_ context.Context, entry auditlog.Entry) {
	f.entries = append(f.entries, entry)
}

type leadersFixture struct {
	svc      Service
	store    *fakeLeaderStore
	links    *fakeLinkSender
	audit    *fakeLeaderAudit
	churchID uuid.UUID
}

func buildLeadersFixture(t *testing.T) *leadersFixture {
	t.Helper()
	store := newFakeLeaderStore()
	churchID := uuid.New()
	churches := &fakeChurchSource{churches: map[uuid.UUID]*models.Church{
		churchID: {ID: churchID, Name: "Hope Chapel"},
	}}
	links := &fakeLinkSender{failFor: map[string]bool{}}
	audit := &fakeLeaderAudit{}
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(store, churches, links, audit, logg)
	require.NoError(t, err)
	return &leadersFixture{svc: svc, store: store, links: links, audit: audit, churchID: churchID}
}

func TestInviteChurchLeaderSendsLinkAndAudits(t *testing.T) {
	fx := buildLeadersFixture(t)

	leader, err := fx.svc.InviteChurchLeader(context.Background(), InviteInput{
		ChurchID:   fx.churchID,
		Name:       "  Dana Wells ",
		Email:      " Dana@Hope.Church ",
		ActorEmail: "admin@dna.org",
	})
	require.NoError(t, err)
	require.Equal(t, "Dana Wells", leader.Name)
	require.Equal(t, "dana@hope.church", leader.Email)
	require.Equal(t, []string{"dana@hope.church"}, fx.links.sent)
	require.Len(t, fx.audit.entries, 1)
	require.Equal(t, "church_leader_invited", fx.audit.entries[0].Action)
}

func TestInviteSurvivesLinkFailure(t *testing.T) {
	fx := buildLeadersFixture(t)
	fx.links.failFor["dana@hope.church"] = true

	leader, err := fx.svc.InviteChurchLeader(context.Background(), InviteInput{
		ChurchID:   fx.churchID,
		Name:       "Dana Wells",
		Email:      "dana@hope.church",
		ActorEmail: "admin@dna.org",
	})
	require.NoError(t, err)
	require.NotNil(t, fx.store.churchLeaders[leader.ID])
}

func TestInviteValidation(t *testing.T) {
	fx := buildLeadersFixture(t)

	_, err := fx.svc.InviteChurchLeader(context.Background(), InviteInput{
		ChurchID: fx.churchID,
		Name:     "",
		Email:    "dana@hope.church",
	})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = fx.svc.InviteDNALeader(context.Background(), InviteInput{
		ChurchID: fx.churchID,
		Name:     "Dana",
		Email:    "not-an-email",
	})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = fx.svc.InviteDNALeader(context.Background(), InviteInput{
		ChurchID: uuid.New(),
		Name:     "Dana",
		Email:    "dana@hope.church",
	})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestActivateByEmailStampsAllMatchingRecords(t *testing.T) {
	fx := buildLeadersFixture(t)
	_, err := fx.svc.InviteChurchLeader(context.Background(), InviteInput{
		ChurchID: fx.churchID, Name: "Dana", Email: "dana@hope.church",
	})
	require.NoError(t, err)
	_, err = fx.svc.InviteDNALeader(context.Background(), InviteInput{
		ChurchID: fx.churchID, Name: "Dana", Email: "dana@hope.church",
	})
	require.NoError(t, err)

	userID := uuid.New()
	require.NoError(t, fx.svc.ActivateByEmail(context.Background(), "DANA@hope.church", userID))

	for _, leader := range fx.store.churchLeaders {
		require.NotNil(t, leader.ActivatedAt)
		require.Equal(t, userID, *leader.UserID)
	}
	for _, leader := range fx.store.dnaLeaders {
		require.NotNil(t, leader.ActivatedAt)
		require.Equal(t, userID, *leader.UserID)
	}

	// second activation leaves the original stamp in place
	first := func() *models.ChurchLeader {
		for _, leader := range fx.store.churchLeaders {
			return leader
		}
		return nil
	}()
	stamped := *first.ActivatedAt
	require.NoError(t, fx.svc.ActivateByEmail(context.Background(), "dana@hope.church", userID))
	require.Equal(t, stamped, *first.ActivatedAt)
}

func TestSendLoginLinksTallyAndDedup(t *testing.T) {
	fx := buildLeadersFixture(t)
	ctx := context.Background()
	_, err := fx.svc.InviteChurchLeader(ctx, InviteInput{ChurchID: fx.churchID, Name: "Dana", Email: "dana@hope.church"})
	require.NoError(t, err)
	_, err = fx.svc.InviteChurchLeader(ctx, InviteInput{ChurchID: fx.churchID, Name: "Jo", Email: "jo@hope.church"})
	require.NoError(t, err)
	// same address wears two hats, only one email goes out
	_, err = fx.svc.InviteDNALeader(ctx, InviteInput{ChurchID: fx.churchID, Name: "Dana", Email: "dana@hope.church"})
	require.NoError(t, err)

	fx.links.sent = nil
	fx.links.failFor["jo@hope.church"] = true

	tally, err := fx.svc.SendLoginLinks(ctx, fx.churchID, "admin@dna.org")
	require.NoError(t, err)
	require.Equal(t, 1, tally.Succeeded)
	require.Equal(t, 1, tally.Failed)
	require.Len(t, tally.Errors, 1)
	require.Contains(t, tally.Errors[0], "jo@hope.church")
	require.Equal(t, []string{"dana@hope.church"}, fx.links.sent)
}

func TestGroupCRUD(t *testing.T) {
	fx := buildLeadersFixture(t)
	ctx := context.Background()

	dnaLeader, err := fx.svc.InviteDNALeader(ctx, InviteInput{ChurchID: fx.churchID, Name: "Dana", Email: "dana@hope.church"})
	require.NoError(t, err)

	group, err := fx.svc.CreateGroup(ctx, GroupInput{
		ChurchID:      fx.churchID,
		DNALeaderID:   &dnaLeader.ID,
		LeaderName:    "Dana",
		DiscipleNames: []string{"Sam", "Riley"},
	})
	require.NoError(t, err)
	require.Len(t, group.DiscipleNames, 2)

	unknownLeader := uuid.New()
	_, err = fx.svc.CreateGroup(ctx, GroupInput{
		ChurchID:    fx.churchID,
		DNALeaderID: &unknownLeader,
		LeaderName:  "Dana",
	})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	updated, err := fx.svc.UpdateGroup(ctx, group.ID, GroupInput{
		ChurchID:      fx.churchID,
		LeaderName:    "Dana",
		DiscipleNames: []string{"Sam", "Riley", "Alex"},
	})
	require.NoError(t, err)
	require.Len(t, updated.DiscipleNames, 3)

	require.NoError(t, fx.svc.DeleteGroup(ctx, group.ID))
	err = fx.svc.DeleteGroup(ctx, group.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
