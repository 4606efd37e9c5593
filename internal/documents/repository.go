package documents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
)

// Repository exposes funnel document and global resource persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateDocument attaches a funnel document to a church.
func (r *Repository) CreateDocument(ctx context.Context, doc *models.FunnelDocument) (*models.FunnelDocument, error) {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// FindDocument loads one funnel document.
func (r *Repository) FindDocument(ctx context.Context, id uuid.UUID) (*models.FunnelDocument, error) {
	var doc models.FunnelDocument
	if err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns a church's funnel documents newest-first.
func (r *Repository) ListDocuments(ctx context.Context, churchID uuid.UUID) ([]models.FunnelDocument, error) {
	var docs []models.FunnelDocument
	if err := r.db.WithContext(ctx).
		Where("church_id = ?", churchID).
		Order("created_at DESC").
		Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a funnel document.
func (r *Repository) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.FunnelDocument{}, "id = ?", id).Error
}

// CreateResource inserts a global resource.
func (r *Repository) CreateResource(ctx context.Context, resource *models.GlobalResource) (*models.GlobalResource, error) {
	if err := r.db.WithContext(ctx).Create(resource).Error; err != nil {
		return nil, err
	}
	return resource, nil
}

// FindResource loads one global resource.
func (r *Repository) FindResource(ctx context.Context, id uuid.UUID) (*models.GlobalResource, error) {
	var resource models.GlobalResource
	if err := r.db.WithContext(ctx).First(&resource, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

// ListResources returns every global resource.
func (r *Repository) ListResources(ctx context.Context) ([]models.GlobalResource, error) {
	var resources []models.GlobalResource
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&resources).Error; err != nil {
		return nil, err
	}
	return resources, nil
}

// UpdateResource persists all fields of the resource.
func (r *Repository) UpdateResource(ctx context.Context, resource *models.GlobalResource) (*models.GlobalResource, error) {
	if err := r.db.WithContext(ctx).Save(resource).Error; err != nil {
		return nil, err
	}
	return resource, nil
}

// DeleteResource removes a global resource.
func (r *Repository) DeleteResource(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.GlobalResource{}, "id = ?", id).Error
}
