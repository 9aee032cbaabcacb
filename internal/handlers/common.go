package handlers

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/assembleme/platform_be_assembly/internal/apperrors"
)

var validate = validator.New()

func getUserUUID(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("userId")
	if v == nil {
		return uuid.Nil, fmt.Errorf("unauthorized")
	}

	switch t := v.(type) {
	case uuid.UUID:
		return t, nil
	case string:
		return uuid.Parse(t)
	case []byte:
		return uuid.ParseBytes(t)
	default:
		return uuid.Nil, fmt.Errorf("invalid userId type: %T", v)
	}
}

// respondError maps service errors onto the usual envelope. Unknown errors
// become a logged 500.
func respondError(c *fiber.Ctx, err error) error {
	status := apperrors.StatusCode(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Println("Unhandled error:", err)
		msg = "Internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func decodeProofURLs(raw datatypes.JSON) []string {
	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return nil
	}
	return urls
}

// validationMessages flattens validator errors into field -> messages, the
// shape the frontend forms expect.
func validationMessages(err error) map[string][]string {
	out := map[string][]string{}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			out[fe.Field()] = append(out[fe.Field()], "failed on "+fe.Tag())
		}
	}
	return out
}
