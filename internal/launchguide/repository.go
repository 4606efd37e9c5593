package launchguide

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
)

// Repository exposes launch-guide progress persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindProgress loads one user's progress row for a phase.
func (r *Repository) FindProgress(ctx context.Context, userID uuid.UUID, phaseNumber int) (*models.LaunchGuidePhaseProgress, error) {
	var row models.LaunchGuidePhaseProgress
	if err := r.db.WithContext(ctx).
		First(&row, "user_id = ? AND phase_number = ?", userID, phaseNumber).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListProgress loads every phase row a user has touched.
func (r *Repository) ListProgress(ctx context.Context, userID uuid.UUID) ([]models.LaunchGuidePhaseProgress, error) {
	var rows []models.LaunchGuidePhaseProgress
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("phase_number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts the lazily created per-phase row.
func (r *Repository) Create(ctx context.Context, row *models.LaunchGuidePhaseProgress) (*models.LaunchGuidePhaseProgress, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update persists all fields of the progress row.
func (r *Repository) Update(ctx context.Context, row *models.LaunchGuidePhaseProgress) (*models.LaunchGuidePhaseProgress, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
