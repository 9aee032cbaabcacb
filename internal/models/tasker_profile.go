package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OnboardingStatus string

const (
	StatusDraft         OnboardingStatus = "draft"
	StatusPendingReview OnboardingStatus = "pending_review"
	StatusApproved      OnboardingStatus = "approved"
	StatusRejected      OnboardingStatus = "rejected"
)

// TaskerProfile holds the onboarding data a tasker submits for admin review.
type TaskerProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	OnboardingStatus OnboardingStatus `gorm:"type:varchar(30);not null;default:'draft'" json:"onboarding_status"`

	PhotoURL string `gorm:"type:text" json:"photo_url"`
	About    string `gorm:"type:text" json:"about"`

	// e.g. ["flat-pack wardrobes", "bed frames", "office desks"]
	Skills datatypes.JSON `json:"skills"`

	ServiceArea  string `gorm:"type:varchar(120)" json:"service_area"`
	ContactEmail string `gorm:"type:varchar(150)" json:"contact_email"`
	ContactPhone string `gorm:"type:varchar(30)" json:"contact_phone"`

	// Filled by the admin on rejection so the tasker knows what to fix.
	ReviewNote string `gorm:"type:text" json:"review_note"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *TaskerProfile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
