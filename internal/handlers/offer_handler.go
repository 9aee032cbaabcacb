package handlers

import (
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/realtime"
)

type OfferHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewOfferHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *OfferHandler {
	return &OfferHandler{DB: db, Hub: hub, RDB: rdb}
}

type CreateOfferReq struct {
	Price        int64  `json:"price" validate:"required,gt=0"`
	Message      string `json:"message"`
	ProposedDate string `json:"proposed_date" validate:"required"` // 2006-01-02
	ProposedTime string `json:"proposed_time" validate:"required"` // 15:04
}

type OfferResponse struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"task_id"`
	TaskerID     string    `json:"tasker_id"`
	Price        int64     `json:"price"`
	Message      string    `json:"message"`
	ProposedDate string    `json:"proposed_date"`
	ProposedTime string    `json:"proposed_time"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`

	TaskerName     string  `json:"tasker_name,omitempty"`
	TaskerApproved bool    `json:"tasker_approved"`
	TaskerRating   float64 `json:"tasker_rating"`
}

func toOfferResponse(o *models.Offer) OfferResponse {
	resp := OfferResponse{
		ID:           o.ID.String(),
		TaskID:       o.TaskID.String(),
		TaskerID:     o.TaskerID.String(),
		Price:        o.Price,
		Message:      o.Message,
		ProposedDate: o.ProposedDate.Format("2006-01-02"),
		ProposedTime: o.ProposedTime,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
	}

	if o.Tasker != nil {
		resp.TaskerName = o.Tasker.FullName
		resp.TaskerApproved = o.Tasker.Approved
		resp.TaskerRating = o.Tasker.Rating
	}

	return resp
}

// CreateOffer places a bid on a pending task. The approved-tasker gate runs
// in middleware; here we hold the duplicate-bid and task-state invariants.
func (h *OfferHandler) CreateOffer(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	var req CreateOfferReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Validation error",
			"errors":  validationMessages(err),
		})
	}

	proposedDate, err := time.Parse("2006-01-02", req.ProposedDate)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "proposed_date must be YYYY-MM-DD"})
	}
	if _, err := time.Parse("15:04", req.ProposedTime); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "proposed_time must be HH:MM"})
	}

	var task models.TaskRequest
	if err := h.DB.First(&task, "id = ?", taskUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Task not found"})
	}

	if task.ClientID == userUUID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "You cannot bid on your own task"})
	}

	if task.Status != models.TaskStatusPending {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Offers can only be placed on pending tasks"})
	}

	// one live offer per tasker per task; a withdrawn one may be replaced
	var existing models.Offer
	err = h.DB.Where("task_id = ? AND tasker_id = ? AND status <> ?",
		taskUUID, userUUID, models.OfferStatusWithdrawn).First(&existing).Error
	if err == nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "You already have an active offer on this task"})
	} else if err != gorm.ErrRecordNotFound {
		log.Println("Error checking existing offer:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create offer"})
	}

	offer := models.Offer{
		TaskID:       taskUUID,
		TaskerID:     userUUID,
		Price:        req.Price,
		Message:      strings.TrimSpace(req.Message),
		ProposedDate: proposedDate,
		ProposedTime: req.ProposedTime,
		Status:       models.OfferStatusPending,
	}

	if err := h.DB.Create(&offer).Error; err != nil {
		log.Println("Error creating offer:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create offer"})
	}

	notif := models.Notification{
		UserID: task.ClientID,
		TaskID: &task.ID,
		Type:   models.NotificationOfferReceived,
		Title:  "New offer",
		Body:   "A tasker placed an offer on \"" + task.Title + "\".",
	}
	if err := h.DB.Create(&notif).Error; err != nil {
		log.Println("Error creating offer notification:", err)
	}

	h.Hub.SendToUser(task.ClientID, fiber.Map{
		"type":    "offer_received",
		"task_id": task.ID.String(),
		"offer":   toOfferResponse(&offer),
	})

	return c.Status(201).JSON(fiber.Map{"success": true, "data": toOfferResponse(&offer)})
}

// GetOffers lists a task's offers, newest first, with tasker display data.
// Only the task owner and taskers who have bid may look.
func (h *OfferHandler) GetOffers(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	var task models.TaskRequest
	if err := h.DB.First(&task, "id = ?", taskUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Task not found"})
	}

	var offers []models.Offer
	if err := h.DB.
		Preload("Tasker").
		Where("task_id = ?", taskUUID).
		Order("created_at DESC").
		Find(&offers).Error; err != nil {
		log.Println("Error fetching offers:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch offers"})
	}

	if task.ClientID != userUUID {
		mine := false
		for _, o := range offers {
			if o.TaskerID == userUUID {
				mine = true
				break
			}
		}
		if !mine {
			return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
		}
	}

	out := make([]OfferResponse, 0, len(offers))
	for i := range offers {
		out = append(out, toOfferResponse(&offers[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

// Withdraw lets a tasker retract their own pending offer.
func (h *OfferHandler) Withdraw(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	offerUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid offer ID"})
	}

	var offer models.Offer
	if err := h.DB.First(&offer, "id = ?", offerUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Offer not found"})
	}

	if offer.TaskerID != userUUID {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Only the offer owner can withdraw it"})
	}

	if offer.Status != models.OfferStatusPending {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Only pending offers can be withdrawn"})
	}

	offer.Status = models.OfferStatusWithdrawn
	if err := h.DB.Save(&offer).Error; err != nil {
		log.Println("Error withdrawing offer:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to withdraw offer"})
	}

	return c.JSON(fiber.Map{"success": true, "data": toOfferResponse(&offer)})
}

// MyOffers lists the calling tasker's offers with their parent tasks.
func (h *OfferHandler) MyOffers(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var offers []models.Offer
	q := h.DB.Preload("Task").Where("tasker_id = ?", userUUID)
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at DESC").Find(&offers).Error; err != nil {
		log.Println("Error fetching my offers:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch offers"})
	}

	data := make([]fiber.Map, 0, len(offers))
	for i := range offers {
		entry := fiber.Map{"offer": toOfferResponse(&offers[i])}
		if offers[i].Task != nil {
			entry["task"] = toTaskResponse(offers[i].Task)
		}
		data = append(data, entry)
	}

	return c.JSON(fiber.Map{"success": true, "data": data})
}
