package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// defaultCategories seeds the picker before any tasks exist.
var defaultCategories = []string{
	"Flat-pack furniture",
	"Wardrobes",
	"Beds and bed frames",
	"Desks and office furniture",
	"Shelving and storage",
	"Outdoor furniture",
	"Disassembly and removal",
}

type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	var categories []string

	err := h.DB.
		Table("task_requests").
		Where("category <> ''").
		Distinct("category").
		Pluck("category", &categories).
		Error

	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch categories",
		})
	}

	seen := make(map[string]bool, len(categories))
	for _, cat := range categories {
		seen[cat] = true
	}
	for _, cat := range defaultCategories {
		if !seen[cat] {
			categories = append(categories, cat)
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
	})
}
