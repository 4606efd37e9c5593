package churches

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
)

// Repository exposes church persistence operations.
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

// Create inserts a new church and returns the persisted model.
func (r *Repository) Create(ctx context.Context, church *models.Church) (*models.Church, error) {
	if err := r.db.WithContext(ctx).Create(church).Error; err != nil {
		return nil, err
	}
	return church, nil
}

// FindByID loads a church by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Church, error) {
	var church models.Church
	if err := r.db.WithContext(ctx).First(&church, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &church, nil
}

// FindByIDs loads the subset of churches that exist for the given ids.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Church, error) {
	var churches []models.Church
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&churches).Error; err != nil {
		return nil, err
	}
	return churches, nil
}

// ListFilters narrows the church listing.
type ListFilters struct {
	Statuses []enums.ChurchStatus
	Search   string
}

// List returns churches newest-first with cursor pagination. The caller gets
// one row past the requested limit so it can detect another page.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Church, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if len(filters.Statuses) > 0 {
		query = query.Where("status IN ?", filters.Statuses)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var churches []models.Church
	if err := query.Find(&churches).Error; err != nil {
		return nil, err
	}
	return churches, nil
}

// Update persists all fields of the church model.
func (r *Repository) Update(ctx context.Context, church *models.Church) (*models.Church, error) {
	if err := r.db.WithContext(ctx).Save(church).Error; err != nil {
		return nil, err
	}
	return church, nil
}

// CountByStatus returns pipeline counts keyed by status.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.ChurchStatus]int64, error) {
	type row struct {
		Status enums.ChurchStatus
		Total  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Church{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[enums.ChurchStatus]int64, len(rows))
	for _, item := range rows {
		counts[item.Status] = item.Total
	}
	return counts, nil
}

// CountActiveByPhase returns how many active churches sit in each phase.
func (r *Repository) CountActiveByPhase(ctx context.Context) (map[int]int64, error) {
	type row struct {
		CurrentPhase int
		Total        int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Church{}).
		Select("current_phase, COUNT(*) AS total").
		Where("status = ?", enums.ChurchStatusActive).
		Group("current_phase").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[int]int64, len(rows))
	for _, item := range rows {
		counts[item.CurrentPhase] = item.Total
	}
	return counts, nil
}
