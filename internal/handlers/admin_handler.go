package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/services/report"
)

type AdminHandler struct {
	DB     *gorm.DB
	Report *report.Service
}

func NewAdminHandler(db *gorm.DB, rep *report.Service) *AdminHandler {
	return &AdminHandler{DB: db, Report: rep}
}

// ListPendingTaskers returns taskers awaiting approval. The canonical guard
// everywhere in this file is approved = false exactly.
func (h *AdminHandler) ListPendingTaskers(c *fiber.Ctx) error {
	var taskers []models.User
	if err := h.DB.
		Preload("TaskerProfile").
		Where("role = ? AND approved = ?", models.RoleTasker, false).
		Order("created_at ASC").
		Find(&taskers).Error; err != nil {
		log.Println("Error fetching pending taskers:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch taskers"})
	}

	return c.JSON(fiber.Map{"success": true, "data": taskers})
}

func (h *AdminHandler) ApproveTasker(c *fiber.Ctx) error {
	taskerUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid user ID"})
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND role = ? AND approved = ?", taskerUUID, models.RoleTasker, false).
			Update("approved", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.TaskerProfile{}).
			Where("user_id = ?", taskerUUID).
			Update("onboarding_status", models.StatusApproved).Error
	})
	if err == gorm.ErrRecordNotFound {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "No unapproved tasker with that ID"})
	}
	if err != nil {
		log.Println("Error approving tasker:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to approve tasker"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Tasker approved"})
}

type RejectTaskerReq struct {
	Note string `json:"note"`
}

func (h *AdminHandler) RejectTasker(c *fiber.Ctx) error {
	taskerUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid user ID"})
	}

	var req RejectTaskerReq
	_ = c.BodyParser(&req)

	var u models.User
	if err := h.DB.
		Where("id = ? AND role = ? AND approved = ?", taskerUUID, models.RoleTasker, false).
		First(&u).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "No unapproved tasker with that ID"})
	}

	if err := h.DB.Model(&models.TaskerProfile{}).
		Where("user_id = ?", taskerUUID).
		Updates(map[string]interface{}{
			"onboarding_status": models.StatusRejected,
			"review_note":       strings.TrimSpace(req.Note),
		}).Error; err != nil {
		log.Println("Error rejecting tasker:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to reject tasker"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Tasker rejected"})
}

func (h *AdminHandler) ListTransactions(c *fiber.Ctx) error {
	q := h.DB.
		Preload("Task").
		Preload("Payer").
		Preload("Payee")

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var trxs []models.Transaction
	if err := q.Order("created_at DESC").Find(&trxs).Error; err != nil {
		log.Println("Error fetching transactions:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch transactions"})
	}

	return c.JSON(fiber.Map{"success": true, "data": trxs})
}

type ConfirmTransactionReq struct {
	PaymentMethod string `json:"payment_method"`
}

// ConfirmTransaction moves a pending transaction to confirmed and stamps
// the confirmation time. Confirmed rows are immutable afterwards, so the
// guard is on status = pending.
func (h *AdminHandler) ConfirmTransaction(c *fiber.Ctx) error {
	trxUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid transaction ID"})
	}

	var req ConfirmTransactionReq
	_ = c.BodyParser(&req)

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.TransactionStatusConfirmed,
		"confirmed_at": now,
	}
	if m := strings.TrimSpace(req.PaymentMethod); m != "" {
		updates["payment_method"] = m
	}

	res := h.DB.Model(&models.Transaction{}).
		Where("id = ? AND status = ?", trxUUID, models.TransactionStatusPending).
		Updates(updates)
	if res.Error != nil {
		log.Println("Error confirming transaction:", res.Error)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to confirm transaction"})
	}
	if res.RowsAffected == 0 {
		return c.Status(409).JSON(fiber.Map{"success": false, "message": "Transaction is not pending"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Transaction confirmed"})
}

// GetReport serves the commission/earnings aggregation over confirmed
// transactions.
func (h *AdminHandler) GetReport(c *fiber.Ctx) error {
	summary, err := h.Report.Build()
	if err != nil {
		log.Println("Error building report:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to build report"})
	}

	return c.JSON(fiber.Map{"success": true, "data": summary})
}
