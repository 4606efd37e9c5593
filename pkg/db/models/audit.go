package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AdminActivityLog records back-office actions. Writes are best-effort: a
// failed audit insert never fails the action that produced it.
type AdminActivityLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ActorEmail string         `gorm:"column:actor_email;not null"`
	Action     string         `gorm:"column:action;not null"`
	ChurchID   *uuid.UUID     `gorm:"column:church_id;type:uuid"`
	OldValues  datatypes.JSON `gorm:"column:old_values"`
	NewValues  datatypes.JSON `gorm:"column:new_values"`
	Note       *string        `gorm:"column:note"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}
