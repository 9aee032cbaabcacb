package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/realtime"
)

type OfferHandlerTestSuite struct {
	suite.Suite
	db  *gorm.DB
	app *fiber.App

	client *models.User
	tasker *models.User
}

// testAuth stands in for the JWT middleware: the test user ID travels in a
// header and lands in the same local the real middleware sets.
func testAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Get("X-Test-User")
		if raw == "" {
			return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
		}
		uid, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"success": false, "message": "Unauthorized"})
		}
		c.Locals("userId", uid)
		if role := c.Get("X-Test-Role"); role != "" {
			c.Locals("role", role)
		}
		return c.Next()
	}
}

func (suite *OfferHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.TaskRequest{},
		&models.Offer{},
		&models.Notification{},
	)
	suite.Require().NoError(err)

	h := NewOfferHandler(suite.db, realtime.NewHub(), nil)

	suite.app = fiber.New()
	api := suite.app.Group("/api", testAuth())
	api.Post("/tasks/:id/offers", h.CreateOffer)
	api.Get("/tasks/:id/offers", h.GetOffers)
	api.Post("/offers/:id/withdraw", h.Withdraw)
	api.Get("/offers/mine", h.MyOffers)

	suite.client = suite.createUser("client@example.com", models.RoleClient)
	suite.tasker = suite.createUser("tasker@example.com", models.RoleTasker)
}

func (suite *OfferHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *OfferHandlerTestSuite) createUser(email string, role models.Role) *models.User {
	u := &models.User{
		FullName: email,
		Email:    email,
		Password: "hashed",
		Role:     role,
		Approved: true,
	}
	suite.Require().NoError(suite.db.Create(u).Error)
	return u
}

func (suite *OfferHandlerTestSuite) createTask(clientID uuid.UUID, status models.TaskStatus) *models.TaskRequest {
	t := &models.TaskRequest{
		ClientID:      clientID,
		Title:         "Assemble bookcase",
		Category:      "Shelving and storage",
		PriceRangeMin: 40,
		PriceRangeMax: 90,
		Location:      "SE1 7PB",
		RequiredDate:  time.Now().AddDate(0, 0, 5),
		RequiredTime:  "10:00",
		Status:        status,
	}
	suite.Require().NoError(suite.db.Create(t).Error)
	return t
}

func (suite *OfferHandlerTestSuite) request(method, url string, body interface{}, asUser uuid.UUID) *http.Response {
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		suite.Require().NoError(err)
		req = httptest.NewRequest(method, url, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}
	req.Header.Set("X-Test-User", asUser.String())

	resp, err := suite.app.Test(req, -1)
	suite.Require().NoError(err)
	return resp
}

func (suite *OfferHandlerTestSuite) decode(resp *http.Response) map[string]interface{} {
	var body map[string]interface{}
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func validOfferBody() map[string]interface{} {
	return map[string]interface{}{
		"price":         65,
		"message":       "Done plenty of these",
		"proposed_date": time.Now().AddDate(0, 0, 5).Format("2006-01-02"),
		"proposed_time": "10:30",
	}
}

func (suite *OfferHandlerTestSuite) TestCreateOffer_Success() {
	task := suite.createTask(suite.client.ID, models.TaskStatusPending)

	resp := suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)
	suite.Equal(201, resp.StatusCode)

	body := suite.decode(resp)
	suite.Equal(true, body["success"])

	var offer models.Offer
	suite.Require().NoError(suite.db.First(&offer, "task_id = ?", task.ID).Error)
	suite.Equal(suite.tasker.ID, offer.TaskerID)
	suite.Equal(int64(65), offer.Price)
	suite.Equal(models.OfferStatusPending, offer.Status)

	// Client gets an offer_received notification.
	var notif models.Notification
	suite.Require().NoError(suite.db.First(&notif, "user_id = ?", suite.client.ID).Error)
	suite.Equal(models.NotificationOfferReceived, notif.Type)
}

func (suite *OfferHandlerTestSuite) TestCreateOffer_OwnTaskForbidden() {
	task := suite.createTask(suite.client.ID, models.TaskStatusPending)

	resp := suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.client.ID)
	suite.Equal(403, resp.StatusCode)

	var count int64
	suite.db.Model(&models.Offer{}).Count(&count)
	suite.Equal(int64(0), count)
}

func (suite *OfferHandlerTestSuite) TestCreateOffer_NonPendingTask() {
	task := suite.createTask(suite.client.ID, models.TaskStatusCancelled)

	resp := suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)
	suite.Equal(400, resp.StatusCode)
}

func (suite *OfferHandlerTestSuite) TestCreateOffer_DuplicateRejected() {
	task := suite.createTask(suite.client.ID, models.TaskStatusPending)

	resp := suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)
	suite.Equal(201, resp.StatusCode)

	resp = suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)
	suite.Equal(400, resp.StatusCode)
}

func (suite *OfferHandlerTestSuite) TestCreateOffer_AfterWithdrawAllowed() {
	task := suite.createTask(suite.client.ID, models.TaskStatusPending)

	resp := suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)
	suite.Equal(201, resp.StatusCode)

	var offer models.Offer
	suite.Require().NoError(suite.db.First(&offer, "task_id = ?", task.ID).Error)

	resp = suite.request("POST", "/api/offers/"+offer.ID.String()+"/withdraw", nil, suite.tasker.ID)
	suite.Equal(200, resp.StatusCode)

	resp = suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)
	suite.Equal(201, resp.StatusCode)
}

func (suite *OfferHandlerTestSuite) TestCreateOffer_ValidationErrors() {
	task := suite.createTask(suite.client.ID, models.TaskStatusPending)

	body := validOfferBody()
	body["price"] = 0
	resp := suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", body, suite.tasker.ID)
	suite.Equal(400, resp.StatusCode)

	body = validOfferBody()
	body["proposed_date"] = "next tuesday"
	resp = suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", body, suite.tasker.ID)
	suite.Equal(400, resp.StatusCode)
}

func (suite *OfferHandlerTestSuite) TestGetOffers_OwnerSeesAll() {
	task := suite.createTask(suite.client.ID, models.TaskStatusPending)
	other := suite.createUser("tasker2@example.com", models.RoleTasker)

	suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)
	suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), other.ID)

	resp := suite.request("GET", "/api/tasks/"+task.ID.String()+"/offers", nil, suite.client.ID)
	suite.Equal(200, resp.StatusCode)

	body := suite.decode(resp)
	data := body["data"].([]interface{})
	suite.Len(data, 2)
}

func (suite *OfferHandlerTestSuite) TestGetOffers_StrangerDenied() {
	task := suite.createTask(suite.client.ID, models.TaskStatusPending)
	suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)

	stranger := suite.createUser("stranger@example.com", models.RoleTasker)
	resp := suite.request("GET", "/api/tasks/"+task.ID.String()+"/offers", nil, stranger.ID)
	suite.Equal(403, resp.StatusCode)
}

func (suite *OfferHandlerTestSuite) TestWithdraw_OnlyOwnPending() {
	task := suite.createTask(suite.client.ID, models.TaskStatusPending)
	suite.request("POST", "/api/tasks/"+task.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)

	var offer models.Offer
	suite.Require().NoError(suite.db.First(&offer, "task_id = ?", task.ID).Error)

	// someone else
	other := suite.createUser("tasker3@example.com", models.RoleTasker)
	resp := suite.request("POST", "/api/offers/"+offer.ID.String()+"/withdraw", nil, other.ID)
	suite.Equal(403, resp.StatusCode)

	// owner
	resp = suite.request("POST", "/api/offers/"+offer.ID.String()+"/withdraw", nil, suite.tasker.ID)
	suite.Equal(200, resp.StatusCode)

	// already withdrawn
	resp = suite.request("POST", "/api/offers/"+offer.ID.String()+"/withdraw", nil, suite.tasker.ID)
	suite.Equal(400, resp.StatusCode)
}

func (suite *OfferHandlerTestSuite) TestMyOffers_FiltersByStatus() {
	taskA := suite.createTask(suite.client.ID, models.TaskStatusPending)
	taskB := suite.createTask(suite.client.ID, models.TaskStatusPending)

	suite.request("POST", "/api/tasks/"+taskA.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)
	suite.request("POST", "/api/tasks/"+taskB.ID.String()+"/offers", validOfferBody(), suite.tasker.ID)

	var offer models.Offer
	suite.Require().NoError(suite.db.First(&offer, "task_id = ?", taskA.ID).Error)
	suite.request("POST", "/api/offers/"+offer.ID.String()+"/withdraw", nil, suite.tasker.ID)

	resp := suite.request("GET", "/api/offers/mine?status=pending", nil, suite.tasker.ID)
	suite.Equal(200, resp.StatusCode)
	body := suite.decode(resp)
	suite.Len(body["data"].([]interface{}), 1)

	resp = suite.request("GET", "/api/offers/mine", nil, suite.tasker.ID)
	body = suite.decode(resp)
	suite.Len(body["data"].([]interface{}), 2)
}

func TestOfferHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(OfferHandlerTestSuite))
}
