package report

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
)

// Commission the platform retains, percent. Reporting-only; no money moves
// through this service.
const CommissionPercent = 20

type TaskerRow struct {
	TaskerID        uuid.UUID  `json:"tasker_id"`
	Name            string     `json:"name"`
	TasksCompleted  int        `json:"tasks_completed"`
	GrossEarnings   int64      `json:"gross_earnings"`
	Commission      int64      `json:"commission"`
	NetEarnings     int64      `json:"net_earnings"`
	LastCompletedAt *time.Time `json:"last_completed_at"`
}

type ClientRow struct {
	ClientID        uuid.UUID  `json:"client_id"`
	Name            string     `json:"name"`
	TasksPaid       int        `json:"tasks_paid"`
	TotalSpend      int64      `json:"total_spend"`
	LastCompletedAt *time.Time `json:"last_completed_at"`
}

type Summary struct {
	Taskers          []TaskerRow `json:"taskers"`
	Clients          []ClientRow `json:"clients"`
	TransactionCount int         `json:"transaction_count"`
	TotalVolume      int64       `json:"total_volume"`
	TotalCommission  int64       `json:"total_commission"`
}

type Service struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Build fetches every confirmed transaction with its task and parties and
// reduces them in a single pass into per-tasker and per-client rows.
func (s *Service) Build() (*Summary, error) {
	var trxs []models.Transaction
	if err := s.DB.
		Preload("Task").
		Preload("Payer").
		Preload("Payee").
		Where("status = ?", models.TransactionStatusConfirmed).
		Find(&trxs).Error; err != nil {
		return nil, err
	}

	return Aggregate(trxs), nil
}

// Aggregate is the pure reduce behind Build, split out so it can be fed
// rows directly.
func Aggregate(trxs []models.Transaction) *Summary {
	taskers := map[uuid.UUID]*TaskerRow{}
	clients := map[uuid.UUID]*ClientRow{}
	sum := &Summary{}

	for _, t := range trxs {
		sum.TransactionCount++
		sum.TotalVolume += t.Amount

		commission := t.Amount * CommissionPercent / 100
		sum.TotalCommission += commission

		var completedAt *time.Time
		if t.Task != nil {
			completedAt = t.Task.CompletedAt
		}

		tr, ok := taskers[t.PayeeID]
		if !ok {
			tr = &TaskerRow{TaskerID: t.PayeeID}
			if t.Payee != nil {
				tr.Name = t.Payee.FullName
			}
			taskers[t.PayeeID] = tr
		}
		tr.TasksCompleted++
		tr.GrossEarnings += t.Amount
		tr.Commission += commission
		tr.NetEarnings += t.Amount - commission
		if completedAt != nil && (tr.LastCompletedAt == nil || completedAt.After(*tr.LastCompletedAt)) {
			tr.LastCompletedAt = completedAt
		}

		cl, ok := clients[t.PayerID]
		if !ok {
			cl = &ClientRow{ClientID: t.PayerID}
			if t.Payer != nil {
				cl.Name = t.Payer.FullName
			}
			clients[t.PayerID] = cl
		}
		cl.TasksPaid++
		cl.TotalSpend += t.Amount
		if completedAt != nil && (cl.LastCompletedAt == nil || completedAt.After(*cl.LastCompletedAt)) {
			cl.LastCompletedAt = completedAt
		}
	}

	for _, tr := range taskers {
		sum.Taskers = append(sum.Taskers, *tr)
	}
	for _, cl := range clients {
		sum.Clients = append(sum.Clients, *cl)
	}

	sort.Slice(sum.Taskers, func(i, j int) bool {
		return sum.Taskers[i].GrossEarnings > sum.Taskers[j].GrossEarnings
	})
	sort.Slice(sum.Clients, func(i, j int) bool {
		return sum.Clients[i].TotalSpend > sum.Clients[j].TotalSpend
	})

	return sum
}
