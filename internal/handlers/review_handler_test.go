package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
)

type ReviewHandlerTestSuite struct {
	suite.Suite
	db  *gorm.DB
	app *fiber.App

	client *models.User
	tasker *models.User
	task   *models.TaskRequest
}

func (suite *ReviewHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.TaskRequest{},
		&models.Offer{},
		&models.Review{},
	)
	suite.Require().NoError(err)

	h := NewReviewHandler(suite.db)

	suite.app = fiber.New()
	api := suite.app.Group("/api", testAuth())
	api.Post("/tasks/:id/reviews", h.CreateReview)
	api.Get("/users/:id/reviews", h.ListForUser)

	suite.client = suite.createUser("client@example.com", models.RoleClient)
	suite.tasker = suite.createUser("tasker@example.com", models.RoleTasker)
	suite.task = suite.completedTask()
}

func (suite *ReviewHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *ReviewHandlerTestSuite) createUser(email string, role models.Role) *models.User {
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

// completedTask builds a completed task with an accepted offer from the
// suite tasker.
func (suite *ReviewHandlerTestSuite) completedTask() *models.TaskRequest {
	now := time.Now()
	task := &models.TaskRequest{
		ClientID:      suite.client.ID,
		Title:         "Assemble bunk bed",
		Category:      "Beds and bed frames",
		PriceRangeMin: 60,
		PriceRangeMax: 100,
		Location:      "LS1 4DY",
		RequiredDate:  now.AddDate(0, 0, -2),
		RequiredTime:  "11:00",
		Status:        models.TaskStatusCompleted,
		CompletedAt:   &now,
	}
	suite.Require().NoError(suite.db.Create(task).Error)

	offer := &models.Offer{
		TaskID:       task.ID,
		TaskerID:     suite.tasker.ID,
		Price:        75,
		ProposedDate: now.AddDate(0, 0, -2),
		ProposedTime: "11:00",
		Status:       models.OfferStatusAccepted,
	}
	suite.Require().NoError(suite.db.Create(offer).Error)

	suite.Require().NoError(suite.db.Model(task).Update("accepted_offer_id", offer.ID).Error)
	task.AcceptedOfferID = &offer.ID
	return task
}

func (suite *ReviewHandlerTestSuite) review(taskID string, asUser *models.User, rating int) *http.Response {
	b, err := json.Marshal(map[string]interface{}{
		"rating":  rating,
		"comment": "Solid work",
	})
	suite.Require().NoError(err)

	req := httptest.NewRequest("POST", "/api/tasks/"+taskID+"/reviews", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", asUser.ID.String())

	resp, err := suite.app.Test(req, -1)
	suite.Require().NoError(err)
	return resp
}

func (suite *ReviewHandlerTestSuite) TestClientReviewsTasker() {
	resp := suite.review(suite.task.ID.String(), suite.client, 5)
	suite.Equal(201, resp.StatusCode)

	var r models.Review
	suite.Require().NoError(suite.db.First(&r, "task_id = ?", suite.task.ID).Error)
	suite.Equal(suite.client.ID, r.ReviewerID)
	suite.Equal(suite.tasker.ID, r.RevieweeID)
	suite.Equal(5, r.Rating)

	// the tasker's aggregate rating is refreshed
	var u models.User
	suite.Require().NoError(suite.db.First(&u, "id = ?", suite.tasker.ID).Error)
	suite.Equal(5.0, u.Rating)
}

func (suite *ReviewHandlerTestSuite) TestTaskerReviewsClient() {
	resp := suite.review(suite.task.ID.String(), suite.tasker, 4)
	suite.Equal(201, resp.StatusCode)

	var r models.Review
	suite.Require().NoError(suite.db.First(&r, "task_id = ?", suite.task.ID).Error)
	suite.Equal(suite.tasker.ID, r.ReviewerID)
	suite.Equal(suite.client.ID, r.RevieweeID)
}

func (suite *ReviewHandlerTestSuite) TestRatingAveragesAcrossTasks() {
	resp := suite.review(suite.task.ID.String(), suite.client, 5)
	suite.Equal(201, resp.StatusCode)

	second := suite.completedTask()
	resp = suite.review(second.ID.String(), suite.client, 2)
	suite.Equal(201, resp.StatusCode)

	var u models.User
	suite.Require().NoError(suite.db.First(&u, "id = ?", suite.tasker.ID).Error)
	suite.InDelta(3.5, u.Rating, 0.001)
}

func (suite *ReviewHandlerTestSuite) TestDuplicateReviewRejected() {
	resp := suite.review(suite.task.ID.String(), suite.client, 5)
	suite.Equal(201, resp.StatusCode)

	resp = suite.review(suite.task.ID.String(), suite.client, 1)
	suite.Equal(400, resp.StatusCode)
}

func (suite *ReviewHandlerTestSuite) TestStrangerCannotReview() {
	stranger := suite.createUser("stranger@example.com", models.RoleClient)

	resp := suite.review(suite.task.ID.String(), stranger, 3)
	suite.Equal(403, resp.StatusCode)
}

func (suite *ReviewHandlerTestSuite) TestIncompleteTaskCannotBeReviewed() {
	open := &models.TaskRequest{
		ClientID:      suite.client.ID,
		Title:         "Assemble shelf",
		Category:      "Shelving and storage",
		PriceRangeMin: 20,
		PriceRangeMax: 40,
		Location:      "B1 1AA",
		RequiredDate:  time.Now().AddDate(0, 0, 4),
		RequiredTime:  "16:00",
		Status:        models.TaskStatusPending,
	}
	suite.Require().NoError(suite.db.Create(open).Error)

	resp := suite.review(open.ID.String(), suite.client, 5)
	suite.Equal(400, resp.StatusCode)
}

func (suite *ReviewHandlerTestSuite) TestRatingOutOfRange() {
	resp := suite.review(suite.task.ID.String(), suite.client, 6)
	suite.Equal(400, resp.StatusCode)

	resp = suite.review(suite.task.ID.String(), suite.client, 0)
	suite.Equal(400, resp.StatusCode)
}

func TestReviewHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ReviewHandlerTestSuite))
}
