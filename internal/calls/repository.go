package calls

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// Repository exposes scheduled-call persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a manually scheduled call.
func (r *Repository) Create(ctx context.Context, call *models.ScheduledCall) (*models.ScheduledCall, error) {
	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		return nil, err
	}
	return call, nil
}

// FindByID loads one call.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScheduledCall, error) {
	var call models.ScheduledCall
	if err := r.db.WithContext(ctx).First(&call, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

// ListByChurch returns a church's calls. Upcoming calls sort soonest-first,
// past calls newest-first.
func (r *Repository) ListByChurch(ctx context.Context, churchID uuid.UUID, upcoming bool, now time.Time) ([]models.ScheduledCall, error) {
	query := r.db.WithContext(ctx).Where("church_id = ?", churchID)
	if upcoming {
		query = query.Where("scheduled_at >= ?", now).Order("scheduled_at ASC")
	} else {
		query = query.Where("scheduled_at < ?", now).Order("scheduled_at DESC")
	}

	var out []models.ScheduledCall
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update persists all fields of the call.
func (r *Repository) Update(ctx context.Context, call *models.ScheduledCall) (*models.ScheduledCall, error) {
	if err := r.db.WithContext(ctx).Save(call).Error; err != nil {
		return nil, err
	}
	return call, nil
}

// Delete removes a manually created call.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ScheduledCall{}, "id = ?", id).Error
}

// UpsertByGoogleEventID inserts or refreshes a synced call keyed on the
// external event id, keeping the invariant of at most one row per event.
func (r *Repository) UpsertByGoogleEventID(ctx context.Context, call *models.ScheduledCall) (*models.ScheduledCall, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "google_event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"church_id", "call_type", "title", "scheduled_at", "meet_link", "updated_at",
			}),
		}).
		Create(call).Error
	if err != nil {
		return nil, err
	}
	return call, nil
}

// CountByTypeBetween returns call volume per type inside the window.
func (r *Repository) CountByTypeBetween(ctx context.Context, from, to time.Time) (map[enums.CallType]int64, error) {
	type row struct {
		CallType enums.CallType
		Total    int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.ScheduledCall{}).
		Select("call_type, COUNT(*) AS total").
		Where("scheduled_at >= ? AND scheduled_at < ?", from, to).
		Group("call_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[enums.CallType]int64, len(rows))
	for _, item := range rows {
		counts[item.CallType] = item.Total
	}
	return counts, nil
}
