package progress

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
)

// Repository exposes phase template and milestone progress persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListPhases returns every phase template in order.
func (r *Repository) ListPhases(ctx context.Context) ([]models.Phase, error) {
	var phases []models.Phase
	if err := r.db.WithContext(ctx).Order("phase_number ASC").Find(&phases).Error; err != nil {
		return nil, err
	}
	return phases, nil
}

// FindPhaseByNumber loads one phase template.
func (r *Repository) FindPhaseByNumber(ctx context.Context, phaseNumber int) (*models.Phase, error) {
	var phase models.Phase
	if err := r.db.WithContext(ctx).First(&phase, "phase_number = ?", phaseNumber).Error; err != nil {
		return nil, err
	}
	return &phase, nil
}

// ListMilestones returns every milestone template ordered by phase position.
func (r *Repository) ListMilestones(ctx context.Context) ([]models.Milestone, error) {
	var milestones []models.Milestone
	if err := r.db.WithContext(ctx).Order("phase_id ASC, position ASC").Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

// ListMilestonesByPhase returns a phase's milestone templates in order.
func (r *Repository) ListMilestonesByPhase(ctx context.Context, phaseID uuid.UUID) ([]models.Milestone, error) {
	var milestones []models.Milestone
	if err := r.db.WithContext(ctx).
		Where("phase_id = ?", phaseID).
		Order("position ASC").
		Find(&milestones).Error; err != nil {
		return nil, err
	}
	return milestones, nil
}

// FindMilestone loads one milestone template.
func (r *Repository) FindMilestone(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	var milestone models.Milestone
	if err := r.db.WithContext(ctx).First(&milestone, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &milestone, nil
}

// FindPhaseByID loads one phase template by id.
func (r *Repository) FindPhaseByID(ctx context.Context, id uuid.UUID) (*models.Phase, error) {
	var phase models.Phase
	if err := r.db.WithContext(ctx).First(&phase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &phase, nil
}

// ListProgress returns every progress row a church has accumulated.
func (r *Repository) ListProgress(ctx context.Context, churchID uuid.UUID) ([]models.MilestoneProgress, error) {
	var rows []models.MilestoneProgress
	if err := r.db.WithContext(ctx).Where("church_id = ?", churchID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindProgress loads the progress row for one church/milestone pair.
func (r *Repository) FindProgress(ctx context.Context, churchID, milestoneID uuid.UUID) (*models.MilestoneProgress, error) {
	var row models.MilestoneProgress
	if err := r.db.WithContext(ctx).
		First(&row, "church_id = ? AND milestone_id = ?", churchID, milestoneID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CreateProgress inserts the lazily created per-church instance.
func (r *Repository) CreateProgress(ctx context.Context, row *models.MilestoneProgress) (*models.MilestoneProgress, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// UpdateProgress persists all fields of the progress row.
func (r *Repository) UpdateProgress(ctx context.Context, row *models.MilestoneProgress) (*models.MilestoneProgress, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
