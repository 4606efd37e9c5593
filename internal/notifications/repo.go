package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
)

// Repository persists notification delivery attempts.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts one delivery record.
func (r *Repository) Create(ctx context.Context, entry *models.NotificationLog) (*models.NotificationLog, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ListByChurch returns the newest delivery records for a church.
func (r *Repository) ListByChurch(ctx context.Context, churchID uuid.UUID, params pagination.Params) ([]models.NotificationLog, error) {
	query := r.db.WithContext(ctx).
		Where("church_id = ?", churchID).
		Order("created_at DESC, id DESC").
		Limit(pagination.NormalizeLimit(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.NotificationLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteOlderThan trims delivery records past the retention window and
// returns the number of rows removed.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.NotificationLog{})
	return result.RowsAffected, result.Error
}
