package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusAccepted   TaskStatus = "accepted"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskRequest is an assembly job posted by a client. Budget figures are
// whole pounds.
type TaskRequest struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`

	Title       string `gorm:"type:varchar(150)" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	Category    string `gorm:"type:varchar(80);not null" json:"category"`
	Subcategory string `gorm:"type:varchar(80);not null" json:"subcategory"`

	PriceRangeMin int64 `json:"price_range_min"`
	PriceRangeMax int64 `json:"price_range_max"`

	Location string `gorm:"type:varchar(150);not null" json:"location"`

	RequiredDate time.Time `json:"required_date"`
	RequiredTime string    `gorm:"type:varchar(5)" json:"required_time"` // "15:04"

	Status TaskStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`

	// Null unless status is accepted or completed. Points at the single
	// offer whose status is accepted.
	AcceptedOfferID *uuid.UUID `gorm:"type:uuid;index" json:"accepted_offer_id,omitempty"`

	CompletionProofURLs datatypes.JSON `json:"completion_proof_urls"`
	CancellationReason  string         `gorm:"type:text" json:"cancellation_reason"`

	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client *User   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Offers []Offer `gorm:"foreignKey:TaskID" json:"offers,omitempty"`
}

func (t *TaskRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
