package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// GoogleOAuthToken stores the admin calendar account's OAuth credentials.
type GoogleOAuthToken struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountEmail string    `gorm:"column:account_email;not null;uniqueIndex"`
	AccessToken  string    `gorm:"column:access_token;not null"`
	RefreshToken string    `gorm:"column:refresh_token;not null"`
	TokenType    string    `gorm:"column:token_type;not null;default:'Bearer'"`
	Expiry       time.Time `gorm:"column:expiry;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// CalendarSyncLog summarizes one sync run.
type CalendarSyncLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	StartedAt  time.Time      `gorm:"column:started_at;not null"`
	FinishedAt time.Time      `gorm:"column:finished_at;not null"`
	Processed  int            `gorm:"column:processed;not null"`
	Synced     int            `gorm:"column:synced;not null"`
	Unmatched  int            `gorm:"column:unmatched;not null"`
	Errors     pq.StringArray `gorm:"column:errors;type:text[]"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}

// UnmatchedCalendarEvent holds events sync could not attribute to a church.
// They are kept for manual linking rather than dropped.
type UnmatchedCalendarEvent struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GoogleEventID  string          `gorm:"column:google_event_id;not null;uniqueIndex"`
	Title          string          `gorm:"column:title;not null"`
	StartsAt       time.Time       `gorm:"column:starts_at;not null"`
	AttendeeEmails pq.StringArray  `gorm:"column:attendee_emails;type:text[]"`
	CallType       *enums.CallType `gorm:"column:call_type"`
	MeetLink       *string         `gorm:"column:meet_link"`
	LinkedChurchID *uuid.UUID      `gorm:"column:linked_church_id;type:uuid"`
	LinkedAt       *time.Time      `gorm:"column:linked_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
