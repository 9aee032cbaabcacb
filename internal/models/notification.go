package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationOfferReceived NotificationType = "offer_received"
	NotificationOfferAccepted NotificationType = "offer_accepted"
	NotificationTaskCompleted NotificationType = "task_completed"
	NotificationTaskCancelled NotificationType = "task_cancelled"
)

type Notification struct {
	ID     uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	TaskID *uuid.UUID       `gorm:"type:uuid;index" json:"task_id,omitempty"`
	Type   NotificationType `gorm:"type:varchar(30);not null" json:"type"`

	Title string `gorm:"type:varchar(150)" json:"title"`
	Body  string `gorm:"type:text" json:"body"`

	IsRead bool `gorm:"default:false" json:"is_read"`

	CreatedAt time.Time `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
