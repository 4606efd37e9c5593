package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ChurchLeader is a staff contact bound to a church. Created by invite,
// activated on first login, never hard-deleted.
type ChurchLeader struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID    uuid.UUID  `gorm:"column:church_id;type:uuid;not null"`
	Name        string     `gorm:"column:name;not null"`
	Email       string     `gorm:"column:email;not null"`
	Phone       *string    `gorm:"column:phone"`
	RoleTitle   *string    `gorm:"column:role_title"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid"`
	InvitedAt   time.Time  `gorm:"column:invited_at;autoCreateTime"`
	ActivatedAt *time.Time `gorm:"column:activated_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// DNALeader runs one or more DNA groups inside a church.
type DNALeader struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID    uuid.UUID  `gorm:"column:church_id;type:uuid;not null"`
	Name        string     `gorm:"column:name;not null"`
	Email       string     `gorm:"column:email;not null"`
	Phone       *string    `gorm:"column:phone"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid"`
	InvitedAt   time.Time  `gorm:"column:invited_at;autoCreateTime"`
	ActivatedAt *time.Time `gorm:"column:activated_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// DNAGroup is a small discipleship group following the 90-Day Toolkit.
type DNAGroup struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ChurchID      uuid.UUID      `gorm:"column:church_id;type:uuid;not null"`
	DNALeaderID   *uuid.UUID     `gorm:"column:dna_leader_id;type:uuid"`
	LeaderName    string         `gorm:"column:leader_name;not null"`
	CoLeaderName  *string        `gorm:"column:co_leader_name"`
	DiscipleNames pq.StringArray `gorm:"column:disciple_names;type:text[]"`
	StartDate     *time.Time     `gorm:"column:start_date"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
