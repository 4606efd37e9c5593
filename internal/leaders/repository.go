package leaders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
)

// Repository exposes church leader, DNA leader and DNA group persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) CreateChurchLeader(ctx context.Context, leader *models.ChurchLeader) (*models.ChurchLeader, error) {
	if err := r.db.WithContext(ctx).Create(leader).Error; err != nil {
		return nil, err
	}
	return leader, nil
}

func (r *Repository) FindChurchLeader(ctx context.Context, id uuid.UUID) (*models.ChurchLeader, error) {
	var leader models.ChurchLeader
	if err := r.db.WithContext(ctx).First(&leader, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &leader, nil
}

func (r *Repository) ListChurchLeaders(ctx context.Context, churchID uuid.UUID) ([]models.ChurchLeader, error) {
	var leaders []models.ChurchLeader
	if err := r.db.WithContext(ctx).
		Where("church_id = ?", churchID).
		Order("created_at ASC").
		Find(&leaders).Error; err != nil {
		return nil, err
	}
	return leaders, nil
}

// FindChurchLeadersByEmail matches case-insensitively on the stored email.
func (r *Repository) FindChurchLeadersByEmail(ctx context.Context, email string) ([]models.ChurchLeader, error) {
	var leaders []models.ChurchLeader
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Find(&leaders).Error; err != nil {
		return nil, err
	}
	return leaders, nil
}

func (r *Repository) UpdateChurchLeader(ctx context.Context, leader *models.ChurchLeader) (*models.ChurchLeader, error) {
	if err := r.db.WithContext(ctx).Save(leader).Error; err != nil {
		return nil, err
	}
	return leader, nil
}

func (r *Repository) CreateDNALeader(ctx context.Context, leader *models.DNALeader) (*models.DNALeader, error) {
	if err := r.db.WithContext(ctx).Create(leader).Error; err != nil {
		return nil, err
	}
	return leader, nil
}

func (r *Repository) FindDNALeader(ctx context.Context, id uuid.UUID) (*models.DNALeader, error) {
	var leader models.DNALeader
	if err := r.db.WithContext(ctx).First(&leader, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &leader, nil
}

func (r *Repository) ListDNALeaders(ctx context.Context, churchID uuid.UUID) ([]models.DNALeader, error) {
	var leaders []models.DNALeader
	if err := r.db.WithContext(ctx).
		Where("church_id = ?", churchID).
		Order("created_at ASC").
		Find(&leaders).Error; err != nil {
		return nil, err
	}
	return leaders, nil
}

func (r *Repository) FindDNALeadersByEmail(ctx context.Context, email string) ([]models.DNALeader, error) {
	var leaders []models.DNALeader
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Find(&leaders).Error; err != nil {
		return nil, err
	}
	return leaders, nil
}

func (r *Repository) UpdateDNALeader(ctx context.Context, leader *models.DNALeader) (*models.DNALeader, error) {
	if err := r.db.WithContext(ctx).Save(leader).Error; err != nil {
		return nil, err
	}
	return leader, nil
}

func (r *Repository) CreateGroup(ctx context.Context, group *models.DNAGroup) (*models.DNAGroup, error) {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

func (r *Repository) FindGroup(ctx context.Context, id uuid.UUID) (*models.DNAGroup, error) {
	var group models.DNAGroup
	if err := r.db.WithContext(ctx).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *Repository) ListGroups(ctx context.Context, churchID uuid.UUID) ([]models.DNAGroup, error) {
	var groups []models.DNAGroup
	if err := r.db.WithContext(ctx).
		Where("church_id = ?", churchID).
		Order("created_at ASC").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *Repository) UpdateGroup(ctx context.Context, group *models.DNAGroup) (*models.DNAGroup, error) {
	if err := r.db.WithContext(ctx).Save(group).Error; err != nil {
		return nil, err
	}
	return group, nil
}

func (r *Repository) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.DNAGroup{}, "id = ?", id).Error
}
