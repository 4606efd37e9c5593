package calendar

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dnadiscipleship/dna-backend/pkg/db/models"
)

// Repository persists OAuth tokens, sync run summaries and unmatched events.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// SaveOAuthToken upserts the stored credentials for the account.
func (r *Repository) SaveOAuthToken(ctx context.Context, token *models.GoogleOAuthToken) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account_email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"access_token", "refresh_token", "token_type", "expiry", "updated_at",
		}),
	}).Create(token).Error
}

// FindOAuthToken loads the stored credentials, newest first when several
// accounts were connected over time.
func (r *Repository) FindOAuthToken(ctx context.Context) (*models.GoogleOAuthToken, error) {
	var token models.GoogleOAuthToken
	if err := r.db.WithContext(ctx).Order("updated_at DESC").First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// CreateSyncLog records one finished sync run.
func (r *Repository) CreateSyncLog(ctx context.Context, log *models.CalendarSyncLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListSyncLogs returns recent runs newest-first.
func (r *Repository) ListSyncLogs(ctx context.Context, limit int) ([]models.CalendarSyncLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []models.CalendarSyncLog
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// UpsertUnmatched stores an event sync could not attribute, keyed by the
// Google event id so a re-sync refreshes instead of duplicating.
func (r *Repository) UpsertUnmatched(ctx context.Context, event *models.UnmatchedCalendarEvent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "google_event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "starts_at", "attendee_emails", "call_type", "meet_link", "updated_at",
		}),
	}).Create(event).Error
}

// FindUnmatched loads one unmatched event.
func (r *Repository) FindUnmatched(ctx context.Context, id uuid.UUID) (*models.UnmatchedCalendarEvent, error) {
	var event models.UnmatchedCalendarEvent
	if err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// ListUnmatched returns events still awaiting a manual link, soonest-first.
func (r *Repository) ListUnmatched(ctx context.Context) ([]models.UnmatchedCalendarEvent, error) {
	var events []models.UnmatchedCalendarEvent
	if err := r.db.WithContext(ctx).
		Where("linked_church_id IS NULL").
		Order("starts_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// MarkLinked stamps the unmatched row with its resolved church.
func (r *Repository) MarkLinked(ctx context.Context, event *models.UnmatchedCalendarEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

// FindChurchByNameInTitle returns the first church whose name appears in the
// title, case-insensitively. Longer names are tried first so "Grace North"
// beats "Grace".
func (r *Repository) FindChurchByNameInTitle(ctx context.Context, title string) (*models.Church, error) {
	var churches []models.Church
	if err := r.db.WithContext(ctx).
		Order("LENGTH(name) DESC").
		Find(&churches).Error; err != nil {
		return nil, err
	}
	lowered := strings.ToLower(title)
	for i := range churches {
		if churches[i].Name == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(churches[i].Name)) {
			return &churches[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
