package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusWithdrawn OfferStatus = "withdrawn"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// Offer is a tasker's bid on a task: a price in whole pounds plus a proposed
// schedule. An offer is accepted iff its id equals the task's
// accepted_offer_id; siblings are rejected at that same moment.
type Offer struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID   uuid.UUID `gorm:"type:uuid;index;not null" json:"task_id"`
	TaskerID uuid.UUID `gorm:"type:uuid;index;not null" json:"tasker_id"`

	Price   int64  `gorm:"not null" json:"price"`
	Message string `gorm:"type:text" json:"message"`

	ProposedDate time.Time `json:"proposed_date"`
	ProposedTime string    `gorm:"type:varchar(5)" json:"proposed_time"` // "15:04"

	Status OfferStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task   *TaskRequest `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Tasker *User        `gorm:"foreignKey:TaskerID" json:"tasker,omitempty"`
}

func (o *Offer) BeforeCreate(tx *gorm.DB) (err error) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return
}
