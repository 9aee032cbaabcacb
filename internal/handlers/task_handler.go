package handlers

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/services/lifecycle"
	"github.com/assembleme/platform_be_assembly/internal/services/notify"
)

type TaskHandler struct {
	DB         *gorm.DB
	Lifecycle  *lifecycle.Service
	Notify     *notify.Service
	UploadDir  string
	AppBaseURL string
}

func NewTaskHandler(db *gorm.DB, lc *lifecycle.Service, nt *notify.Service, uploadDir, appBaseURL string) *TaskHandler {
	return &TaskHandler{DB: db, Lifecycle: lc, Notify: nt, UploadDir: uploadDir, AppBaseURL: appBaseURL}
}

type CreateTaskRequest struct {
	Title         string `json:"title" validate:"required"`
	Description   string `json:"description"`
	Category      string `json:"category" validate:"required"`
	Subcategory   string `json:"subcategory" validate:"required"`
	PriceRangeMin int64  `json:"price_range_min" validate:"required,gt=0"`
	PriceRangeMax int64  `json:"price_range_max" validate:"required,gt=0"`
	Location      string `json:"location" validate:"required"`
	RequiredDate  string `json:"required_date" validate:"required"` // 2006-01-02
	RequiredTime  string `json:"required_time" validate:"required"` // 15:04
}

// TaskResponse is the task DTO with offers embedded for the owner / an
// offering tasker.
type TaskResponse struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      string     `json:"category"`
	Subcategory   string     `json:"subcategory"`
	PriceRangeMin int64      `json:"price_range_min"`
	PriceRangeMax int64      `json:"price_range_max"`
	Location      string     `json:"location"`
	RequiredDate  string     `json:"required_date"`
	RequiredTime  string     `json:"required_time"`
	Status        string     `json:"status"`
	AcceptedOffer *string    `json:"accepted_offer_id,omitempty"`
	ProofURLs     []string   `json:"completion_proof_urls,omitempty"`
	CancelReason  string     `json:"cancellation_reason,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	ClientName string          `json:"client_name,omitempty"`
	Offers     []OfferResponse `json:"offers,omitempty"`
}

func toTaskResponse(t *models.TaskRequest) TaskResponse {
	resp := TaskResponse{
		ID:            t.ID.String(),
		ClientID:      t.ClientID.String(),
		Title:         t.Title,
		Description:   t.Description,
		Category:      t.Category,
		Subcategory:   t.Subcategory,
		PriceRangeMin: t.PriceRangeMin,
		PriceRangeMax: t.PriceRangeMax,
		Location:      t.Location,
		RequiredDate:  t.RequiredDate.Format("2006-01-02"),
		RequiredTime:  t.RequiredTime,
		Status:        string(t.Status),
		CancelReason:  t.CancellationReason,
		CompletedAt:   t.CompletedAt,
		CancelledAt:   t.CancelledAt,
		CreatedAt:     t.CreatedAt,
	}

	if t.AcceptedOfferID != nil {
		s := t.AcceptedOfferID.String()
		resp.AcceptedOffer = &s
	}

	if len(t.CompletionProofURLs) > 0 {
		resp.ProofURLs = decodeProofURLs(t.CompletionProofURLs)
	}

	if t.Client != nil {
		resp.ClientName = t.Client.FullName
	}

	for i := range t.Offers {
		resp.Offers = append(resp.Offers, toOfferResponse(&t.Offers[i]))
	}

	return resp
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	// trim before validating so whitespace-only fields fail the required rule
	req.Title = strings.TrimSpace(req.Title)
	req.Category = strings.TrimSpace(req.Category)
	req.Subcategory = strings.TrimSpace(req.Subcategory)
	req.Location = strings.TrimSpace(req.Location)

	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"success": false,
			"message": "Validation error",
			"errors":  validationMessages(err),
		})
	}

	if req.PriceRangeMin > req.PriceRangeMax {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Minimum budget cannot exceed maximum budget"})
	}

	reqDate, err := time.Parse("2006-01-02", req.RequiredDate)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "required_date must be YYYY-MM-DD"})
	}

	reqClock, err := time.Parse("15:04", req.RequiredTime)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "required_time must be HH:MM"})
	}

	scheduled := time.Date(reqDate.Year(), reqDate.Month(), reqDate.Day(),
		reqClock.Hour(), reqClock.Minute(), 0, 0, time.Local)
	if !scheduled.After(time.Now()) {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Required date and time must be in the future"})
	}

	task := models.TaskRequest{
		ClientID:      userUUID,
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		PriceRangeMin: req.PriceRangeMin,
		PriceRangeMax: req.PriceRangeMax,
		Location:      req.Location,
		RequiredDate:  reqDate,
		RequiredTime:  req.RequiredTime,
		Status:        models.TaskStatusPending,
	}

	if err := h.DB.Create(&task).Error; err != nil {
		log.Println("Error creating task:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create task"})
	}

	// fan-out email to approved taskers; never blocks or fails the create
	h.Notify.TaskCreatedAsync(&task)

	return c.Status(201).JSON(fiber.Map{
		"success": true,
		"data":    toTaskResponse(&task),
	})
}

// ListTasks applies the role visibility rules: clients see their own tasks,
// taskers see open tasks from other clients plus anything they have bid on.
func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	role, _ := c.Locals("role").(string)

	q := h.DB.
		Preload("Client").
		Preload("Offers", func(db *gorm.DB) *gorm.DB {
			return db.Order("offers.created_at DESC")
		}).
		Preload("Offers.Tasker")

	switch role {
	case string(models.RoleTasker):
		bidOn := h.DB.Model(&models.Offer{}).Select("task_id").Where("tasker_id = ?", userUUID)
		q = q.Where("(status = ? AND client_id <> ?) OR id IN (?)",
			models.TaskStatusPending, userUUID, bidOn)
	default:
		q = q.Where("client_id = ?", userUUID)
	}

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var tasks []models.TaskRequest
	if err := q.Order("created_at DESC").Find(&tasks).Error; err != nil {
		log.Println("Error fetching tasks:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to fetch tasks"})
	}

	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, toTaskResponse(&tasks[i]))
	}

	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	var task models.TaskRequest
	if err := h.DB.
		Preload("Client").
		Preload("Offers", func(db *gorm.DB) *gorm.DB {
			return db.Order("offers.created_at DESC")
		}).
		Preload("Offers.Tasker").
		First(&task, "id = ?", taskUUID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Task not found"})
	}

	if !h.visibleTo(&task, userUUID, c.Locals("role")) {
		// invisible is indistinguishable from missing
		return c.Status(404).JSON(fiber.Map{"success": false, "message": "Task not found"})
	}

	return c.JSON(fiber.Map{"success": true, "data": toTaskResponse(&task)})
}

func (h *TaskHandler) visibleTo(task *models.TaskRequest, userUUID uuid.UUID, roleVal interface{}) bool {
	if task.ClientID == userUUID {
		return true
	}
	role, _ := roleVal.(string)
	if role == string(models.RoleAdmin) {
		return true
	}
	if role != string(models.RoleTasker) {
		return false
	}
	if task.Status == models.TaskStatusPending {
		return true
	}
	for _, o := range task.Offers {
		if o.TaskerID == userUUID {
			return true
		}
	}
	return false
}

type AcceptOfferRequest struct {
	OfferID string `json:"offer_id" validate:"required"`
}

func (h *TaskHandler) AcceptOffer(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	var req AcceptOfferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	offerUUID, err := uuid.Parse(req.OfferID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid offer ID"})
	}

	task, err := h.Lifecycle.AcceptOffer(taskUUID, offerUUID, userUUID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": toTaskResponse(task)})
}

// removeProofFiles deletes stored proof photos and their directory once it
// is empty. Best effort, failures are logged and not surfaced.
func removeProofFiles(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			log.Println("Error removing proof file:", err)
		}
	}
	if len(paths) > 0 {
		// only succeeds when no other uploads share the directory
		_ = os.Remove(filepath.Dir(paths[0]))
	}
}

// Complete receives the proof photos as multipart form files, stores them
// and runs the completion transition.
func (h *TaskHandler) Complete(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Proof photos are required"})
	}

	files := form.File["photos"]
	if len(files) > 5 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "At most 5 proof photos are allowed"})
	}

	var proofURLs []string
	var savedPaths []string
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid file format (jpg/png only)"})
		}
		if file.Size > 10*1024*1024 {
			return c.Status(400).JSON(fiber.Map{"success": false, "message": "File " + file.Filename + " exceeds 10MB limit"})
		}

		// keyed {taskId}/{timestamp}_{random}.{ext}
		filename := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.New().String()[:8], ext)
		dir := filepath.Join(h.UploadDir, "proofs", taskUUID.String())
		if err := os.MkdirAll(dir, 0755); err != nil {
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create upload directory"})
		}

		dst := filepath.Join(dir, filename)
		if err := c.SaveFile(file, dst); err != nil {
			log.Println("Error saving proof file:", err)
			removeProofFiles(savedPaths)
			return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to save proof photo"})
		}
		savedPaths = append(savedPaths, dst)

		publicPath := "/uploads/proofs/" + taskUUID.String() + "/" + filename
		if h.AppBaseURL != "" {
			publicPath = strings.TrimRight(h.AppBaseURL, "/") + publicPath
		}
		proofURLs = append(proofURLs, publicPath)
	}

	task, err := h.Lifecycle.CompleteTask(taskUUID, userUUID, proofURLs)
	if err != nil {
		// the transition was rejected, so the photos never became part of
		// any task record and must not linger on disk
		removeProofFiles(savedPaths)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": toTaskResponse(task)})
}

type CancelTaskRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *TaskHandler) Cancel(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	taskUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid task ID"})
	}

	var req CancelTaskRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Cancellation reason is required"})
	}

	task, err := h.Lifecycle.CancelTask(taskUUID, userUUID, strings.TrimSpace(req.Reason))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "data": toTaskResponse(task)})
}
