package auditlog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/pagination"
)

// Repository persists admin activity entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts an activity entry.
func (r *Repository) Create(ctx context.Context, entry *models.AdminActivityLog) (*models.AdminActivityLog, error) {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ListFilters narrows the activity listing.
type ListFilters struct {
	ActorEmail string
	ChurchID   *uuid.UUID
	Action     string
}

// List returns activity entries newest-first with cursor pagination, one row
// past the limit so callers can detect the next page.
func (r *Repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.AdminActivityLog, error) {
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filters.ActorEmail != "" {
		query = query.Where("actor_email = ?", filters.ActorEmail)
	}
	if filters.ChurchID != nil {
		query = query.Where("church_id = ?", *filters.ChurchID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var entries []models.AdminActivityLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
