package documents

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
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

type fakeDocumentStore struct {
	docs      map[uuid.UUID]*models.FunnelDocument
	resources []*models.GlobalResource
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: map[uuid.UUID]*models.FunnelDocument{}}
}

func (f *fakeDocumentStore) CreateDocument(_ context.Context, doc *models.FunnelDocument) (*models.FunnelDocument, error) {
	doc.ID = uuid.New()
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *fakeDocumentStore) FindDocument(_ context.Context, id uuid.UUID) (*models.FunnelDocument, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return doc, nil
}

func (f *fakeDocumentStore) ListDocuments(_ context.Context, churchID uuid.UUID) ([]models.FunnelDocument, error) {
	var out []models.FunnelDocument
	for _, doc := range f.docs {
		if doc.ChurchID == churchID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocumentStore) DeleteDocument(_ context.Context, id uuid.UUID) error {
	delete(f.docs, id)
	return nil
}

func (f *fakeDocumentStore) CreateResource(_ context.Context, resource *models.GlobalResource) (*models.GlobalResource, error) {
	resource.ID = uuid.New()
	f.resources = append(f.resources, resource)
	return resource, nil
}

func (f *fakeDocumentStore) FindResource(_ context.Context, id uuid.UUID) (*models.GlobalResource, error) {
	for _, resource := range f.resources {
		if resource.ID == id {
			return resource, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDocumentStore) ListResources(_ context.Context) ([]models.GlobalResource, error) {
	out := make([]models.GlobalResource, 0, len(f.resources))
	for _, resource := range f.resources {
		out = append(out, *resource)
	}
	return out, nil
}

func (f *fakeDocumentStore) UpdateResource(_ context.Context, resource *models.GlobalResource) (*models.GlobalResource, error) {
	for i, existing := range f.resources {
		if existing.ID == resource.ID {
			f.resources[i] = resource
			return resource, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDocumentStore) DeleteResource(_ context.Context, id uuid.UUID) error {
	for i, resource := range f.resources {
		if resource.ID == id {
			f.resources = append(f.resources[:i], f.resources[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeChurchFinder struct {
	churches map[uuid.UUID]*models.Church
}

func (f *fakeChurchFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Church, error) {
	church, ok := f.churches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return church, nil
}

type fakeAssessmentGate struct {
	byUser map[uuid.UUID]*models.Assessment
}

func (f *fakeAssessmentGate) FindByUserID(_ context.Context, userID uuid.UUID) (*models.Assessment, error) {
	assessment, ok := f.byUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func buildDocumentsService(t *testing.T, store *fakeDocumentStore, churches *fakeChurchFinder, gate *fakeAssessmentGate) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
	svc, err := NewService(store, churches, gate, logg)
	require.NoError(t, err)
	return svc
}

func TestAddDocumentValidatesKindAndChurch(t *testing.T) {
	store := newFakeDocumentStore()
	churchID := uuid.New()
	churches := &fakeChurchFinder{churches: map[uuid.UUID]*models.Church{
		churchID: {ID: churchID, Name: "Grace Fellowship"},
	}}
	svc := buildDocumentsService(t, store, churches, &fakeAssessmentGate{byUser: map[uuid.UUID]*models.Assessment{}})

	_, err := svc.AddDocument(context.Background(), AddDocumentInput{
		ChurchID: churchID,
		Kind:     enums.DocumentKind("scribble"),
		Title:    "Proposal",
		FileURL:  "https://files.example.com/proposal.pdf",
	})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.AddDocument(context.Background(), AddDocumentInput{
		ChurchID: uuid.New(),
		Kind:     enums.DocumentKindProposal,
		Title:    "Proposal",
		FileURL:  "https://files.example.com/proposal.pdf",
	})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	doc, err := svc.AddDocument(context.Background(), AddDocumentInput{
		ChurchID: churchID,
		Kind:     enums.DocumentKindProposal,
		Title:    "  Proposal  ",
		FileURL:  "https://files.example.com/proposal.pdf",
	})
	require.NoError(t, err)
	require.Equal(t, "Proposal", doc.Title)
}

func TestListResourcesForUserGatesOnAssessment(t *testing.T) {
	store := newFakeDocumentStore()
	open := &models.GlobalResource{ID: uuid.New(), Title: "Starter Guide", FileURL: "https://files.example.com/starter.pdf"}
	gated := &models.GlobalResource{ID: uuid.New(), Title: "Coaching Workbook", FileURL: "https://files.example.com/workbook.pdf", RequiresAssessment: true}
	store.resources = []*models.GlobalResource{open, gated}

	completedAt := time.Now()
	doneUser := uuid.New()
	freshUser := uuid.New()
	gate := &fakeAssessmentGate{byUser: map[uuid.UUID]*models.Assessment{
		doneUser: {ID: uuid.New(), UserID: doneUser, CompletedAt: &completedAt},
	}}
	svc := buildDocumentsService(t, store, &fakeChurchFinder{churches: map[uuid.UUID]*models.Church{}}, gate)

	visible, err := svc.ListResourcesForUser(context.Background(), freshUser)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "Starter Guide", visible[0].Title)

	visible, err = svc.ListResourcesForUser(context.Background(), doneUser)
	require.NoError(t, err)
	require.Len(t, visible, 2)
}

func TestResourceUpdateAndRemove(t *testing.T) {
	store := newFakeDocumentStore()
	svc := buildDocumentsService(t, store, &fakeChurchFinder{churches: map[uuid.UUID]*models.Church{}}, &fakeAssessmentGate{byUser: map[uuid.UUID]*models.Assessment{}})

	created, err := svc.CreateResource(context.Background(), ResourceInput{Title: "Vision Deck", FileURL: "https://files.example.com/vision.pdf"})
	require.NoError(t, err)

	updated, err := svc.UpdateResource(context.Background(), created.ID, ResourceInput{
		Title:              "Vision Deck v2",
		FileURL:            "https://files.example.com/vision-v2.pdf",
		RequiresAssessment: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Vision Deck v2", updated.Title)
	require.True(t, updated.RequiresAssessment)

	require.NoError(t, svc.RemoveResource(context.Background(), created.ID))
	err = svc.RemoveResource(context.Background(), created.ID)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
