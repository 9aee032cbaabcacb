package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
)

type NotificationHandler struct {
	DB *gorm.DB
}

func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var notifs []models.Notification
	if err := h.DB.
		Where("user_id = ?", userUUID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifs).Error; err != nil {
		log.Println("Error fetching notifications:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch notifications"})
	}

	var unread int64
	h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userUUID, false).
		Count(&unread)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    notifs,
		"meta":    fiber.Map{"unread": unread},
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	notifUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid notification ID"})
	}

	res := h.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notifUUID, userUUID).
		Update("is_read", true)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update notification"})
	}
	if res.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Notification not found"})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	res := h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userUUID, false).
		Update("is_read", true)
	if res.Error != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"marked": res.RowsAffected},
	})
}
