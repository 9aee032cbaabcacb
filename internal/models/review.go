package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a post-completion rating. One review per
// (task, reviewer, reviewee) triple.
type Review struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID     uuid.UUID `gorm:"type:uuid;index:idx_review_triple,unique;not null" json:"task_id"`
	ReviewerID uuid.UUID `gorm:"type:uuid;index:idx_review_triple,unique;not null" json:"reviewer_id"`
	RevieweeID uuid.UUID `gorm:"type:uuid;index:idx_review_triple,unique;not null" json:"reviewee_id"`

	Rating  int    `gorm:"not null" json:"rating"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task     *TaskRequest `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Reviewer *User        `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Reviewee *User        `gorm:"foreignKey:RevieweeID" json:"reviewee,omitempty"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
