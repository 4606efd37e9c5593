package assessments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
)

// Repository exposes assessment persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUserID loads the user's single assessment record.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).First(&assessment, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

// Create inserts the record created on first load.
func (r *Repository) Create(ctx context.Context, assessment *models.Assessment) (*models.Assessment, error) {
	if err := r.db.WithContext(ctx).Create(assessment).Error; err != nil {
		return nil, err
	}
	return assessment, nil
}

// Update persists all fields of the assessment.
func (r *Repository) Update(ctx context.Context, assessment *models.Assessment) (*models.Assessment, error) {
	if err := r.db.WithContext(ctx).Save(assessment).Error; err != nil {
		return nil, err
	}
	return assessment, nil
}

// CountCompleted returns how many assessments have been finalized.
func (r *Repository) CountCompleted(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("completed_at IS NOT NULL").
		Count(&total).Error
	return total, err
}

// CountStarted returns how many assessments exist at all.
func (r *Repository) CountStarted(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Assessment{}).Count(&total).Error
	return total, err
}
