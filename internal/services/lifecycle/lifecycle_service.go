package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/assembleme/platform_be_assembly/internal/apperrors"
	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/realtime"
)

// Service owns every status transition of a TaskRequest. Handlers never
// write task or offer statuses directly; they go through AcceptOffer,
// CompleteTask and CancelTask so the invariants hold in one place.
type Service struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func New(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *Service {
	return &Service{DB: db, Hub: hub, RDB: rdb}
}

const maxProofImages = 5

// lockForUpdate takes a SELECT ... FOR UPDATE on the rows the query reads.
// The sqlite driver drops the clause; it serializes writes on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// AcceptOffer moves a pending task to accepted. The three writes (reject
// siblings, accept the chosen offer, point the task at it) run as one
// transaction with the task row locked, so at most one offer can ever be
// accepted even under concurrent clients.
func (s *Service) AcceptOffer(taskID, offerID, callerID uuid.UUID) (*models.TaskRequest, error) {
	var task models.TaskRequest
	var offer models.Offer

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&task, "id = ?", taskID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("task not found")
			}
			return err
		}

		if task.ClientID != callerID {
			return apperrors.Authorization("only the task owner can accept an offer")
		}

		if task.Status != models.TaskStatusPending {
			return apperrors.Transition(fmt.Sprintf("cannot accept an offer on a %s task", task.Status))
		}

		if err := tx.First(&offer, "id = ? AND task_id = ?", offerID, taskID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("offer not found on this task")
			}
			return err
		}

		if offer.Status != models.OfferStatusPending {
			return apperrors.Transition(fmt.Sprintf("offer is %s, not pending", offer.Status))
		}

		// 1. Every sibling offer drops to rejected.
		if err := tx.Model(&models.Offer{}).
			Where("task_id = ? AND id <> ?", taskID, offerID).
			Where("status IN ?", []models.OfferStatus{models.OfferStatusPending, models.OfferStatusAccepted}).
			Update("status", models.OfferStatusRejected).Error; err != nil {
			return err
		}

		// 2. The chosen offer becomes the accepted one.
		offer.Status = models.OfferStatusAccepted
		if err := tx.Save(&offer).Error; err != nil {
			return err
		}

		// 3. The task points at it.
		task.Status = models.TaskStatusAccepted
		task.AcceptedOfferID = &offer.ID
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		notif := models.Notification{
			UserID: offer.TaskerID,
			TaskID: &task.ID,
			Type:   models.NotificationOfferAccepted,
			Title:  "Offer accepted",
			Body:   fmt.Sprintf("Your offer on %q was accepted.", task.Title),
		}
		return tx.Create(&notif).Error
	})
	if err != nil {
		return nil, err
	}

	s.publishTaskEvent(&task, offer.TaskerID, "offer_accepted")
	return &task, nil
}

// CompleteTask closes an accepted task. Only the tasker behind the accepted
// offer may call it, and 1-5 proof image URLs are required. A pending
// Transaction is recorded in the same unit.
func (s *Service) CompleteTask(taskID, callerID uuid.UUID, proofURLs []string) (*models.TaskRequest, error) {
	if len(proofURLs) == 0 {
		return nil, apperrors.Validation("at least one completion proof image is required")
	}
	if len(proofURLs) > maxProofImages {
		return nil, apperrors.Validation(fmt.Sprintf("at most %d completion proof images are allowed", maxProofImages))
	}

	var task models.TaskRequest
	var offer models.Offer

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&task, "id = ?", taskID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("task not found")
			}
			return err
		}

		if task.Status != models.TaskStatusAccepted {
			return apperrors.Transition(fmt.Sprintf("cannot complete a %s task", task.Status))
		}

		if task.AcceptedOfferID == nil {
			return apperrors.Transition("accepted task has no accepted offer")
		}

		if err := tx.First(&offer, "id = ?", *task.AcceptedOfferID).Error; err != nil {
			return err
		}

		if offer.TaskerID != callerID {
			return apperrors.Authorization("only the accepted tasker can complete this task")
		}

		proofs, err := json.Marshal(proofURLs)
		if err != nil {
			return err
		}

		now := time.Now()
		task.Status = models.TaskStatusCompleted
		task.CompletedAt = &now
		task.CompletionProofURLs = proofs
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		trx := models.Transaction{
			TaskID:  task.ID,
			PayerID: task.ClientID,
			PayeeID: offer.TaskerID,
			Amount:  offer.Price,
			Status:  models.TransactionStatusPending,
		}
		if err := tx.Create(&trx).Error; err != nil {
			return err
		}

		notif := models.Notification{
			UserID: task.ClientID,
			TaskID: &task.ID,
			Type:   models.NotificationTaskCompleted,
			Title:  "Task completed",
			Body:   fmt.Sprintf("%q has been marked completed with %d proof photo(s).", task.Title, len(proofURLs)),
		}
		return tx.Create(&notif).Error
	})
	if err != nil {
		return nil, err
	}

	s.publishTaskEvent(&task, offer.TaskerID, "task_completed")
	return &task, nil
}

// CancelTask terminates a pending or accepted task. Sibling offers that are
// still live get an explicit cancelled status in the same transaction, so
// tasker views never have to infer it from the parent task.
func (s *Service) CancelTask(taskID, callerID uuid.UUID, reason string) (*models.TaskRequest, error) {
	var task models.TaskRequest
	var liveOffers []models.Offer

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&task, "id = ?", taskID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.NotFound("task not found")
			}
			return err
		}

		if task.ClientID != callerID {
			return apperrors.Authorization("only the task owner can cancel this task")
		}

		if task.Status != models.TaskStatusPending && task.Status != models.TaskStatusAccepted {
			return apperrors.Transition(fmt.Sprintf("cannot cancel a %s task", task.Status))
		}

		if err := tx.Where("task_id = ?", taskID).
			Where("status IN ?", []models.OfferStatus{models.OfferStatusPending, models.OfferStatusAccepted}).
			Find(&liveOffers).Error; err != nil {
			return err
		}

		now := time.Now()
		task.Status = models.TaskStatusCancelled
		task.CancelledAt = &now
		task.CancellationReason = reason
		task.AcceptedOfferID = nil
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		if len(liveOffers) > 0 {
			ids := make([]uuid.UUID, 0, len(liveOffers))
			for _, o := range liveOffers {
				ids = append(ids, o.ID)
			}
			if err := tx.Model(&models.Offer{}).
				Where("id IN ?", ids).
				Update("status", models.OfferStatusCancelled).Error; err != nil {
				return err
			}
		}

		for _, o := range liveOffers {
			notif := models.Notification{
				UserID: o.TaskerID,
				TaskID: &task.ID,
				Type:   models.NotificationTaskCancelled,
				Title:  "Task cancelled",
				Body:   fmt.Sprintf("%q was cancelled by the client.", task.Title),
			}
			if err := tx.Create(&notif).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, o := range liveOffers {
		s.publishTaskEvent(&task, o.TaskerID, "task_cancelled")
	}
	return &task, nil
}

// publishTaskEvent pushes the status change over the websocket hub and the
// per-user Redis channel. Best-effort: the transition has already committed.
func (s *Service) publishTaskEvent(task *models.TaskRequest, taskerID uuid.UUID, event string) {
	payload := map[string]interface{}{
		"type":    event,
		"task_id": task.ID.String(),
		"status":  string(task.Status),
	}

	if s.Hub != nil {
		s.Hub.SendToTaskParties(task.ClientID, taskerID, payload)
	}

	if s.RDB != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return
		}
		for _, uid := range []uuid.UUID{task.ClientID, taskerID} {
			if err := s.RDB.Publish(context.Background(), "notifications:"+uid.String(), b).Err(); err != nil {
				log.Printf("[Lifecycle] Redis publish failed for %s: %v", uid, err)
			}
		}
	}
}
