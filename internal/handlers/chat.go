package handlers

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/realtime"
)

// ChatHandler serves the per-task message thread between the client and an
// offering tasker.
type ChatHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
	RDB *redis.Client
}

func NewChatHandler(db *gorm.DB, hub *realtime.Hub, rdb *redis.Client) *ChatHandler {
	return &ChatHandler{DB: db, Hub: hub, RDB: rdb}
}

type MessageResponse struct {
	ID         string    `json:"id"`
	TaskID     string    `json:"task_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`

	SenderName string `json:"sender_name,omitempty"`
}

func toMessageResponse(m *models.Message) MessageResponse {
	resp := MessageResponse{
		ID:         m.ID.String(),
		TaskID:     m.TaskID.String(),
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
	if m.Sender != nil {
		resp.SenderName = m.Sender.FullName
	}
	return resp
}

// participant reports whether the user belongs to the task thread: the
// owner always, a tasker only once they have an offer on the task.
func (h *ChatHandler) participant(task *models.TaskRequest, userUUID uuid.UUID) bool {
	if task.ClientID == userUUID {
		return true
	}
	var n int64
	h.DB.Model(&models.Offer{}).
		Where("task_id = ? AND tasker_id = ?", task.ID, userUUID).
		Count(&n)
	return n > 0
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
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

	if !h.participant(&task, userUUID) {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
	}

	var msgs []models.Message
	if err := h.DB.
		Preload("Sender").
		Where("task_id = ?", taskUUID).
		Where("sender_id = ? OR receiver_id = ?", userUUID, userUUID).
		Order("created_at ASC").
		Find(&msgs).Error; err != nil {
		log.Println("Error fetching messages:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch messages"})
	}

	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessageResponse(&msgs[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

type SendMessageReq struct {
	Content string `json:"content"`
	// required when the sender is the client, since several taskers may be
	// bidding on the same task
	ReceiverID string `json:"receiver_id"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Message content is required"})
	}

	var task models.TaskRequest
	if err := h.DB.First(&task, "id = ?", taskUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Task not found"})
	}

	if !h.participant(&task, userUUID) {
		return c.Status(403).JSON(fiber.Map{"success": false, "message": "Access denied"})
	}

	var receiverID uuid.UUID
	if task.ClientID == userUUID {
		receiverID, err = uuid.Parse(req.ReceiverID)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "receiver_id is required"})
		}
		var n int64
		h.DB.Model(&models.Offer{}).
			Where("task_id = ? AND tasker_id = ?", taskUUID, receiverID).
			Count(&n)
		if n == 0 {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Receiver has no offer on this task"})
		}
	} else {
		receiverID = task.ClientID
	}

	msg := models.Message{
		TaskID:     taskUUID,
		SenderID:   userUUID,
		ReceiverID: receiverID,
		Content:    strings.TrimSpace(req.Content),
		IsRead:     false,
	}

	if err := h.DB.Create(&msg).Error; err != nil {
		log.Println("Error creating message:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to send message"})
	}

	msgResp := toMessageResponse(&msg)

	h.Hub.SendToTaskParties(msg.SenderID, msg.ReceiverID, fiber.Map{
		"type":    "new_message",
		"message": msgResp,
	})

	notif := map[string]interface{}{
		"type":      "chat_message",
		"task_id":   taskUUID.String(),
		"sender_id": userUUID.String(),
		"content":   msg.Content,
	}
	payload, _ := json.Marshal(notif)
	h.RDB.Publish(context.Background(), "notifications:"+receiverID.String(), payload)

	return c.JSON(fiber.Map{"success": true, "data": msgResp})
}

// MarkAsRead flips every unread message addressed to the caller in this
// thread. false -> true only; nothing ever goes back.
func (h *ChatHandler) MarkAsRead(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	now := time.Now()
	res := h.DB.Model(&models.Message{}).
		Where("task_id = ? AND receiver_id = ? AND is_read = ?", taskUUID, userUUID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if res.Error != nil {
		log.Println("Error marking messages read:", res.Error)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to mark as read"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"marked": res.RowsAffected},
	})
}

// WebSocketHandler keeps a connection registered on the hub so task events
// and chat messages reach the browser live.
func (h *ChatHandler) WebSocketHandler(c *websocket.Conn) {
	userID := c.Query("user_id")
	if userID == "" {
		log.Println("WebSocket: user_id parameter missing")
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		log.Println("WebSocket: invalid user_id:", userID, "error:", err)
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected\n", userID)
	}()

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			break
		}
		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
