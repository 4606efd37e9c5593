package documents

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	pkgerrors "github.com/dnadiscipleship/dna-backend/pkg/errors"
	"github.com/dnadiscipleship/dna-backend/pkg/logger"
)

// Service manages funnel documents and the global resource library.
type Service interface {
	AddDocument(ctx context.Context, input AddDocumentInput) (*models.FunnelDocument, error)
	ListDocuments(ctx context.Context, churchID uuid.UUID) ([]models.FunnelDocument, error)
	RemoveDocument(ctx context.Context, id uuid.UUID) error

	CreateResource(ctx context.Context, input ResourceInput) (*models.GlobalResource, error)
	UpdateResource(ctx context.Context, id uuid.UUID, input ResourceInput) (*models.GlobalResource, error)
	RemoveResource(ctx context.Context, id uuid.UUID) error
	ListResourcesForUser(ctx context.Context, userID uuid.UUID) ([]models.GlobalResource, error)
	ListAllResources(ctx context.Context) ([]models.GlobalResource, error)
}

// AddDocumentInput describes a funnel document attachment.
type AddDocumentInput struct {
	ChurchID uuid.UUID
	Kind     enums.DocumentKind
	Title    string
	FileURL  string
}

// ResourceInput carries global resource fields for create and update.
type ResourceInput struct {
	Title              string
	Description        *string
	FileURL            string
	RequiresAssessment bool
}

type documentStore interface {
	CreateDocument(ctx context.Context, doc *models.FunnelDocument) (*models.FunnelDocument, error)
	FindDocument(ctx context.Context, id uuid.UUID) (*models.FunnelDocument, error)
	ListDocuments(ctx context.Context, churchID uuid.UUID) ([]models.FunnelDocument, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	CreateResource(ctx context.Context, resource *models.GlobalResource) (*models.GlobalResource, error)
	FindResource(ctx context.Context, id uuid.UUID) (*models.GlobalResource, error)
	ListResources(ctx context.Context) ([]models.GlobalResource, error)
	UpdateResource(ctx context.Context, resource *models.GlobalResource) (*models.GlobalResource, error)
	DeleteResource(ctx context.Context, id uuid.UUID) error
}

type churchLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error)
}

type assessmentGate interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Assessment, error)
}

type service struct {
	repo        documentStore
	churches    churchLoader
	assessments assessmentGate
	logg        *logger.Logger
}

// NewService wires the documents service.
func NewService(repo documentStore, churches churchLoader, assessments assessmentGate, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "documents: repo is required")
	}
	if churches == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "documents: church loader is required")
	}
	if assessments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "documents: assessment gate is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "documents: logger is required")
	}
	return &service{repo: repo, churches: churches, assessments: assessments, logg: logg}, nil
}

func (s *service) AddDocument(ctx context.Context, input AddDocumentInput) (*models.FunnelDocument, error) {
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown document kind")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document title is required")
	}
	if strings.TrimSpace(input.FileURL) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document file URL is required")
	}
	if _, err := s.churches.FindByID(ctx, input.ChurchID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "church not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load church")
	}

	doc := &models.FunnelDocument{
		ChurchID: input.ChurchID,
		Kind:     input.Kind,
		Title:    title,
		FileURL:  strings.TrimSpace(input.FileURL),
	}
	created, err := s.repo.CreateDocument(ctx, doc)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create funnel document")
	}
	return created, nil
}

func (s *service) ListDocuments(ctx context.Context, churchID uuid.UUID) ([]models.FunnelDocument, error) {
	docs, err := s.repo.ListDocuments(ctx, churchID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list funnel documents")
	}
	return docs, nil
}

func (s *service) RemoveDocument(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindDocument(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load funnel document")
	}
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete funnel document")
	}
	return nil
}

func (s *service) CreateResource(ctx context.Context, input ResourceInput) (*models.GlobalResource, error) {
	if err := validateResourceInput(input); err != nil {
		return nil, err
	}
	resource := &models.GlobalResource{
		Title:              strings.TrimSpace(input.Title),
		Description:        input.Description,
		FileURL:            strings.TrimSpace(input.FileURL),
		RequiresAssessment: input.RequiresAssessment,
	}
	created, err := s.repo.CreateResource(ctx, resource)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create global resource")
	}
	return created, nil
}

func (s *service) UpdateResource(ctx context.Context, id uuid.UUID, input ResourceInput) (*models.GlobalResource, error) {
	if err := validateResourceInput(input); err != nil {
		return nil, err
	}
	resource, err := s.repo.FindResource(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load global resource")
	}
	resource.Title = strings.TrimSpace(input.Title)
	resource.Description = input.Description
	resource.FileURL = strings.TrimSpace(input.FileURL)
	resource.RequiresAssessment = input.RequiresAssessment
	updated, err := s.repo.UpdateResource(ctx, resource)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update global resource")
	}
	return updated, nil
}

func (s *service) RemoveResource(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindResource(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load global resource")
	}
	if err := s.repo.DeleteResource(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete global resource")
	}
	return nil
}

// ListResourcesForUser hides assessment-gated resources until the viewer has a
// completed assessment on file.
func (s *service) ListResourcesForUser(ctx context.Context, userID uuid.UUID) ([]models.GlobalResource, error) {
	resources, err := s.repo.ListResources(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list global resources")
	}

	completed := false
	assessment, err := s.assessments.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		completed = assessment.Complete()
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no assessment yet, gated resources stay hidden
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load assessment")
	}

	visible := make([]models.GlobalResource, 0, len(resources))
	for _, resource := range resources {
		if resource.RequiresAssessment && !completed {
			continue
		}
		visible = append(visible, resource)
	}
	return visible, nil
}

func (s *service) ListAllResources(ctx context.Context) ([]models.GlobalResource, error) {
	resources, err := s.repo.ListResources(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list global resources")
	}
	return resources, nil
}

func validateResourceInput(input ResourceInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "resource title is required")
	}
	if strings.TrimSpace(input.FileURL) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "resource file URL is required")
	}
	return nil
}
