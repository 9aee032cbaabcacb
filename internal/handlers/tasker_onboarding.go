package handlers

import (
	"encoding/json"
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
)

// TaskerOnboardingHandler walks a tasker through building the profile an
// admin reviews before flipping users.approved.
type TaskerOnboardingHandler struct {
	DB         *gorm.DB
	UploadDir  string
	AppBaseURL string
}

func NewTaskerOnboardingHandler(db *gorm.DB, uploadDir, appBaseURL string) *TaskerOnboardingHandler {
	return &TaskerOnboardingHandler{DB: db, UploadDir: uploadDir, AppBaseURL: appBaseURL}
}

func (h *TaskerOnboardingHandler) getOrCreate(userUUID uuid.UUID) (*models.TaskerProfile, error) {
	var p models.TaskerProfile
	err := h.DB.Where("user_id = ?", userUUID).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		p = models.TaskerProfile{
			UserID:           userUUID,
			OnboardingStatus: models.StatusDraft,
		}
		if err := h.DB.Create(&p).Error; err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *TaskerOnboardingHandler) Get(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	p, err := h.getOrCreate(userUUID)
	if err != nil {
		log.Println("Error loading tasker profile:", err)
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to load profile"})
	}

	return c.JSON(fiber.Map{"success": true, "data": p})
}

func (h *TaskerOnboardingHandler) UploadPhoto(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Photo is required"})
	}

	if file.Size > 2*1024*1024 {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "File too large (max 2MB)"})
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid file format (jpg/png only)"})
	}

	dir := filepath.Join(h.UploadDir, "taskers", userUUID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to create upload directory"})
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	if err := c.SaveFile(file, filepath.Join(dir, filename)); err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to save file"})
	}

	publicURL := "/uploads/taskers/" + userUUID.String() + "/" + filename
	if h.AppBaseURL != "" {
		publicURL = strings.TrimRight(h.AppBaseURL, "/") + publicURL
	}

	p, err := h.getOrCreate(userUUID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to load profile"})
	}

	p.PhotoURL = publicURL
	p.UpdatedAt = time.Now()
	if err := h.DB.Save(p).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update profile photo"})
	}

	return c.JSON(fiber.Map{"success": true, "data": p})
}

type UpdateTaskerProfileReq struct {
	About        string   `json:"about"`
	Skills       []string `json:"skills"`
	ServiceArea  string   `json:"service_area"`
	ContactEmail string   `json:"contact_email"`
	ContactPhone string   `json:"contact_phone"`
}

func (h *TaskerOnboardingHandler) UpdateProfile(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	var req UpdateTaskerProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Invalid request body"})
	}

	p, err := h.getOrCreate(userUUID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to load profile"})
	}

	if req.About != "" {
		p.About = req.About
	}
	if len(req.Skills) > 0 {
		b, _ := json.Marshal(req.Skills)
		p.Skills = b
	}
	if req.ServiceArea != "" {
		p.ServiceArea = req.ServiceArea
	}
	if req.ContactEmail != "" {
		p.ContactEmail = strings.ToLower(strings.TrimSpace(req.ContactEmail))
	}
	if req.ContactPhone != "" {
		p.ContactPhone = strings.TrimSpace(req.ContactPhone)
	}
	p.UpdatedAt = time.Now()

	if err := h.DB.Save(p).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to update profile"})
	}

	return c.JSON(fiber.Map{"success": true, "data": p})
}

// Submit sends the profile to the admin queue. Photo, about and service
// area must be filled in first.
func (h *TaskerOnboardingHandler) Submit(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
	}

	p, err := h.getOrCreate(userUUID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to load profile"})
	}

	errs := FieldErrors{}
	if p.PhotoURL == "" {
		errs.Add("photo", "Profile photo is required")
	}
	if strings.TrimSpace(p.About) == "" {
		errs.Add("about", "About section is required")
	}
	if strings.TrimSpace(p.ServiceArea) == "" {
		errs.Add("service_area", "Service area is required")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	if p.OnboardingStatus == models.StatusApproved {
		return c.Status(400).JSON(fiber.Map{"success": false, "message": "Profile is already approved"})
	}

	p.OnboardingStatus = models.StatusPendingReview
	p.UpdatedAt = time.Now()
	if err := h.DB.Save(p).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"success": false, "message": "Failed to submit profile"})
	}

	return c.JSON(fiber.Map{"success": true, "message": "Profile submitted for review", "data": p})
}
