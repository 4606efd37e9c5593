package assessments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
)

type fakeAssessmentStore struct {
	byUser map[uuid.UUID]*models.Assessment
}

func (f *fakeAssessmentStore) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Assessment, error) {
	if assessment, ok := f.byUser[userID]; ok {
		copied := *assessment
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAssessmentStore) Create(_ context.Context, assessment *models.Assessment) (*models.Assessment, error) {
	assessment.ID = uuid.New()
	f.byUser[assessment.UserID] = assessment
	return assessment, nil
}

func (f *fakeAssessmentStore) Update(_ context.Context, assessment *models.Assessment) (*models.Assessment, error) {
	f.byUser[assessment.UserID] = assessment
	return assessment, nil
}

type fakeUserLoader struct {
	user *models.User
}

func (f *fakeUserLoader) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.user == nil || f.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

type assessmentNotifyCall struct {
	kind string
	top  []string
}

type fakeAssessmentNotifier struct {
	calls []assessmentNotifyCall
}

func (f *fakeAssessmentNotifier) AssessmentSubmitted(_ context.Context, _, _, _ string, topRoadblocks []string) {
	f.calls = append(f.calls, assessmentNotifyCall{kind: "submitted", top: topRoadblocks})
}

func (f *fakeAssessmentNotifier) ManualDelivery(_ context.Context, _, _, _ string) {
	f.calls = append(f.calls, assessmentNotifyCall{kind: "manual"})
}

func buildAssessmentService(t *testing.T) (Service, *fakeAssessmentStore, *fakeAssessmentNotifier, *models.User) {
	t.Helper()
	user := &models.User{ID: uuid.New(), Email: "participant@example.com", Name: "Pat"}
	store := &fakeAssessmentStore{byUser: map[uuid.UUID]*models.Assessment{}}
	notifier := &fakeAssessmentNotifier{}
	svc, err := NewService(store, &fakeUserLoader{user: user}, notifier, "team@example.com", "https://app.example.com/manual")
	require.NoError(t, err)
	return svc, store, notifier, user
}

func TestTopRoadblocksOrderingAndTruncation(t *testing.T) {
	catalog := Roadblocks()
	a, b, c, d, e := catalog[0].ID, catalog[1].ID, catalog[2].ID, catalog[3].ID, catalog[4].ID

	// d beats e on catalog order since both are rated 3.
	top := TopRoadblocks(map[string]int{a: 5, b: 2, c: 4, d: 3, e: 3})
	require.Equal(t, []string{a, c, d}, top)
}

func TestTopRoadblocksAllLowRatingsIsEmpty(t *testing.T) {
	catalog := Roadblocks()
	top := TopRoadblocks(map[string]int{catalog[0].ID: 2, catalog[1].ID: 1})
	require.Empty(t, top)
}

func TestTopRoadblocksFewerThanThreeQualifying(t *testing.T) {
	catalog := Roadblocks()
	top := TopRoadblocks(map[string]int{catalog[0].ID: 2, catalog[1].ID: 4})
	require.Equal(t, []string{catalog[1].ID}, top)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	svc, store, _, user := buildAssessmentService(t)

	first, err := svc.GetOrCreate(context.Background(), user.ID)
	require.NoError(t, err)
	second, err := svc.GetOrCreate(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, store.byUser, 1)
}

func TestAutosaveValidatesRatings(t *testing.T) {
	svc, _, _, user := buildAssessmentService(t)
	catalog := Roadblocks()

	_, err := svc.Autosave(context.Background(), user.ID, AutosaveInput{
		Ratings: map[string]int{catalog[0].ID: 6},
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Autosave(context.Background(), user.ID, AutosaveInput{
		Ratings: map[string]int{"made_up": 3},
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCompleteStampsAndNotifies(t *testing.T) {
	svc, _, notifier, user := buildAssessmentService(t)
	catalog := Roadblocks()

	_, err := svc.Autosave(context.Background(), user.ID, AutosaveInput{
		Ratings: map[string]int{catalog[0].ID: 5, catalog[1].ID: 3, catalog[2].ID: 2},
	})
	require.NoError(t, err)

	dto, err := svc.Complete(context.Background(), user.ID)
	require.NoError(t, err)
	require.True(t, dto.Complete)
	require.NotNil(t, dto.CompletedAt)
	require.Equal(t, []string{catalog[0].ID, catalog[1].ID}, dto.TopRoadblocks)

	kinds := []string{}
	for _, call := range notifier.calls {
		kinds = append(kinds, call.kind)
	}
	require.Equal(t, []string{"submitted", "manual"}, kinds)
}

func TestCompleteTwiceIsNoOp(t *testing.T) {
	svc, _, notifier, user := buildAssessmentService(t)
	catalog := Roadblocks()

	_, err := svc.Autosave(context.Background(), user.ID, AutosaveInput{
		Ratings: map[string]int{catalog[0].ID: 4},
	})
	require.NoError(t, err)

	first, err := svc.Complete(context.Background(), user.ID)
	require.NoError(t, err)
	second, err := svc.Complete(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, first.CompletedAt, second.CompletedAt)
	require.Len(t, notifier.calls, 2)
}

func TestAutosaveAfterCompleteRejected(t *testing.T) {
	svc, _, _, user := buildAssessmentService(t)
	catalog := Roadblocks()

	_, err := svc.Autosave(context.Background(), user.ID, AutosaveInput{
		Ratings: map[string]int{catalog[0].ID: 4},
	})
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = svc.Autosave(context.Background(), user.ID, AutosaveInput{
		Ratings: map[string]int{catalog[0].ID: 1},
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCompleteWithNoRatingsRejected(t *testing.T) {
	svc, _, _, user := buildAssessmentService(t)

	_, err := svc.Complete(context.Background(), user.ID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}
