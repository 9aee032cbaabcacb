package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Transaction records the payment owed for a completed task. It is created
// by the lifecycle service when the task completes and only an admin may
// confirm it; confirmed rows never change except for ConfirmedAt.
type Transaction struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID uuid.UUID `gorm:"type:uuid;index;not null" json:"task_id"`

	PayerID uuid.UUID `gorm:"type:uuid;index;not null" json:"payer_id"`
	PayeeID uuid.UUID `gorm:"type:uuid;index;not null" json:"payee_id"`

	Amount        int64  `gorm:"not null" json:"amount"`
	PaymentMethod string `gorm:"type:varchar(50)" json:"payment_method"`

	Status      TransactionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ConfirmedAt *time.Time        `json:"confirmed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Task  *TaskRequest `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Payer *User        `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
	Payee *User        `gorm:"foreignKey:PayeeID" json:"payee,omitempty"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}
