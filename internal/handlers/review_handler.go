package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
)

type ReviewHandler struct {
	DB *gorm.DB
}

func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{DB: db}
}

type CreateReviewReq struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// CreateReview lets either side of a completed task review the other. One
// review per (task, reviewer, reviewee); the reviewee's aggregate rating is
// refreshed in the same transaction.
func (h *ReviewHandler) CreateReview(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	var req CreateReviewReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Rating must be between 1 and 5",
		})
	}

	var task models.TaskRequest
	if err := h.DB.First(&task, "id = ?", taskUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Task not found"})
	}

	if task.Status != models.TaskStatusCompleted {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Only completed tasks can be reviewed"})
	}

	if task.AcceptedOfferID == nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Task has no accepted offer"})
	}

	var offer models.Offer
	if err := h.DB.First(&offer, "id = ?", *task.AcceptedOfferID).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to load accepted offer"})
	}

	var revieweeID uuid.UUID
	switch userUUID {
	case task.ClientID:
		revieweeID = offer.TaskerID
	case offer.TaskerID:
		revieweeID = task.ClientID
	default:
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Only the task parties can leave a review"})
	}

	var existing models.Review
	err = h.DB.Where("task_id = ? AND reviewer_id = ? AND reviewee_id = ?",
		taskUUID, userUUID, revieweeID).First(&existing).Error
	if err == nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "You already reviewed this task"})
	} else if err != gorm.ErrRecordNotFound {
		log.Println("Error checking existing review:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create review"})
	}

	review := models.Review{
		TaskID:     taskUUID,
		ReviewerID: userUUID,
		RevieweeID: revieweeID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}

		var avg float64
		if err := tx.Model(&models.Review{}).
			Where("reviewee_id = ?", revieweeID).
			Select("COALESCE(AVG(rating), 0)").
			Scan(&avg).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", revieweeID).
			Update("rating", avg).Error
	})
	if err != nil {
		log.Println("Error creating review:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create review"})
	}

	return c.Status(201).JSON(fiber.Map{"success": true, "data": review})
}

// ListForUser returns reviews received by a user, newest first.
func (h *ReviewHandler) ListForUser(c *fiber.Ctx) error {
	targetUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid user ID"})
	}

	var reviews []models.Review
	if err := h.DB.
		Preload("Reviewer").
		Preload("Task").
		Where("reviewee_id = ?", targetUUID).
		Order("created_at DESC").
		Find(&reviews).Error; err != nil {
		log.Println("Error fetching reviews:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch reviews"})
	}

	return c.JSON(fiber.Map{"success": true, "data": reviews})
}
