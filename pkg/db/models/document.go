package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// FunnelDocument is a static file reference attached to a church
// (proposal PDF, implementation plan, signed agreement).
type FunnelDocument struct {
	ID        uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID  uuid.UUID          `gorm:"column:church_id;type:uuid;not null"`
	Kind      enums.DocumentKind `gorm:"column:kind;not null"`
	Title     string             `gorm:"column:title;not null"`
	FileURL   string             `gorm:"column:file_url;not null"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// GlobalResource is a shared file available to every church. Resources with
// RequiresAssessment set stay hidden until the viewer completes the assessment.
type GlobalResource struct {
	ID                 uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Title              string    `gorm:"column:title;not null"`
	Description        *string   `gorm:"column:description"`
	FileURL            string    `gorm:"column:file_url;not null"`
	RequiresAssessment bool      `gorm:"column:requires_assessment;not null;default:false"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
