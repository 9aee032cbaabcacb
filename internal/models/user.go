package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient Role = "client"
	RoleTasker Role = "tasker"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FullName string    `gorm:"not null" json:"full_name"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone    string    `gorm:"type:varchar(30)" json:"phone"`

	Password string `gorm:"not null" json:"-"`

	// Role is fixed at registration and never changes afterwards.
	Role Role `gorm:"type:varchar(20);not null;index" json:"role"`

	// Taskers may only bid once an admin has approved them.
	Approved bool    `gorm:"default:false" json:"approved"`
	Rating   float64 `gorm:"default:0" json:"rating"`
	IsActive bool    `gorm:"default:true" json:"is_active"`

	// Email fan-out opt-out for taskers.
	NotifyByEmail bool `gorm:"default:true" json:"notify_by_email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TaskerProfile *TaskerProfile `gorm:"foreignKey:UserID;references:ID" json:"tasker_profile,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
