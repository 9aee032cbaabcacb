package handlers

import (
	"log"
	"math"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/services/report"
)

type TaskerDashboardHandler struct {
	DB *gorm.DB
}

func NewTaskerDashboardHandler(db *gorm.DB) *TaskerDashboardHandler {
	return &TaskerDashboardHandler{DB: db}
}

// GetStats returns summary numbers for the tasker dashboard.
func (h *TaskerDashboardHandler) GetStats(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	// Active jobs: accepted offers on tasks still moving through the funnel.
	var activeJobs int64
	if err := h.DB.Model(&models.Offer{}).
		Joins("JOIN task_requests ON task_requests.id = offers.task_id").
		Where("offers.tasker_id = ?", userUUID).
		Where("offers.status = ?", models.OfferStatusAccepted).
		Where("task_requests.status IN ?", []models.TaskStatus{
			models.TaskStatusAccepted,
			models.TaskStatusInProgress,
		}).
		Count(&activeJobs).Error; err != nil {
		log.Printf("[DashboardStats] Error counting active jobs for user %v: %v", userUUID, err)
	}

	var pendingOffers int64
	h.DB.Model(&models.Offer{}).
		Where("tasker_id = ?", userUUID).
		Where("status = ?", models.OfferStatusPending).
		Count(&pendingOffers)

	var unreadMessages int64
	h.DB.Model(&models.Message{}).
		Where("receiver_id = ?", userUUID).
		Where("is_read = ?", false).
		Count(&unreadMessages)

	// Gross earnings over confirmed payouts, net after the platform cut.
	var grossEarnings int64
	h.DB.Model(&models.Transaction{}).
		Where("payee_id = ?", userUUID).
		Where("status = ?", models.TransactionStatusConfirmed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&grossEarnings)

	netEarnings := grossEarnings - grossEarnings*report.CommissionPercent/100

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"active_jobs":     activeJobs,
			"pending_offers":  pendingOffers,
			"unread_messages": unreadMessages,
			"gross_earnings":  grossEarnings,
			"net_earnings":    netEarnings,
		},
	})
}

// GetJobs lists tasks this tasker has an accepted offer on, newest first.
func (h *TaskerDashboardHandler) GetJobs(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	q := h.DB.Model(&models.Offer{}).
		Preload("Task").
		Preload("Task.Client").
		Where("tasker_id = ?", userUUID).
		Where("status = ?", models.OfferStatusAccepted)

	status := c.Query("status")
	if status != "" {
		q = q.Joins("JOIN task_requests ON task_requests.id = offers.task_id").
			Where("task_requests.status = ?", status)
	}

	var total int64
	q.Count(&total)

	var offers []models.Offer
	if err := q.Order("offers.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&offers).Error; err != nil {
		log.Println("Error fetching tasker jobs:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch jobs"})
	}

	data := make([]fiber.Map, 0, len(offers))
	for _, o := range offers {
		clientName := "Client"
		if o.Task != nil && o.Task.Client != nil {
			clientName = o.Task.Client.FullName
		}

		row := fiber.Map{
			"offer_id":    o.ID,
			"price":       o.Price,
			"accepted_at": o.UpdatedAt,
			"client_name": clientName,
		}
		if o.Task != nil {
			row["task_id"] = o.Task.ID
			row["title"] = o.Task.Title
			row["category"] = o.Task.Category
			row["location"] = o.Task.Location
			row["status"] = o.Task.Status
			row["required_date"] = o.Task.RequiredDate
			row["required_time"] = o.Task.RequiredTime
		}
		data = append(data, row)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
		"meta": fiber.Map{
			"page":        page,
			"limit":       limit,
			"total_items": total,
			"total_pages": int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// GetEarnings returns the payout history plus running totals.
func (h *TaskerDashboardHandler) GetEarnings(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var gross int64
	h.DB.Model(&models.Transaction{}).
		Where("payee_id = ? AND status = ?", userUUID, models.TransactionStatusConfirmed).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&gross)

	var history []models.Transaction
	if err := h.DB.Preload("Task").
		Where("payee_id = ?", userUUID).
		Order("created_at desc").
		Limit(50).
		Find(&history).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch earnings history",
		})
	}

	commission := gross * report.CommissionPercent / 100

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"gross_earnings": gross,
			"commission":     commission,
			"net_earnings":   gross - commission,
			"history":        history,
		},
	})
}
