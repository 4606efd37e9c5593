package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dnadiscipleship/dna-backend/pkg/enums"
)

// NotificationLog records every outbound email attempt, sent or failed.
type NotificationLog struct {
	ID        uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Type      enums.NotificationType `gorm:"column:type;not null"`
	Recipient string                 `gorm:"column:recipient;not null"`
	ChurchID  *uuid.UUID             `gorm:"column:church_id;type:uuid"`
	Subject   string                 `gorm:"column:subject;not null"`
	Status    enums.DeliveryStatus   `gorm:"column:status;not null"`
	Error     *string                `gorm:"column:error"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
