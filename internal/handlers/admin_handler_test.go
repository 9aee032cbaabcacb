package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/services/report"
)

type AdminHandlerTestSuite struct {
	suite.Suite
	db  *gorm.DB
	app *fiber.App

	admin *models.User
}

func (suite *AdminHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.TaskerProfile{},
		&models.TaskRequest{},
		&models.Transaction{},
	)
	suite.Require().NoError(err)

	h := NewAdminHandler(suite.db, report.New(suite.db))

	suite.app = fiber.New()
	admin := suite.app.Group("/api/admin", testAuth())
	admin.Get("/taskers/pending", h.ListPendingTaskers)
	admin.Post("/taskers/:id/approve", h.ApproveTasker)
	admin.Post("/taskers/:id/reject", h.RejectTasker)
	admin.Post("/transactions/:id/confirm", h.ConfirmTransaction)
	admin.Get("/report", h.GetReport)

	suite.admin = &models.User{
		FullName: "Back Office",
		Email:    "admin@example.com",
		Password: "hashed",
		Role:     models.RoleAdmin,
		Approved: true,
	}
	suite.Require().NoError(suite.db.Create(suite.admin).Error)
}

func (suite *AdminHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

func (suite *AdminHandlerTestSuite) createTasker(email string, approved bool) *models.User {
	u := &models.User{
		FullName: email,
		Email:    email,
		Password: "hashed",
		Role:     models.RoleTasker,
		Approved: approved,
	}
	suite.Require().NoError(suite.db.Create(u).Error)
	suite.Require().NoError(suite.db.Create(&models.TaskerProfile{
		UserID:           u.ID,
		OnboardingStatus: models.StatusPendingReview,
	}).Error)
	return u
}

func (suite *AdminHandlerTestSuite) do(method, url string) *http.Response {
	req := httptest.NewRequest(method, url, nil)
	req.Header.Set("X-Test-User", suite.admin.ID.String())

	resp, err := suite.app.Test(req, -1)
	suite.Require().NoError(err)
	return resp
}

func (suite *AdminHandlerTestSuite) TestApproveTasker() {
	tasker := suite.createTasker("pending@example.com", false)

	resp := suite.do("POST", "/api/admin/taskers/"+tasker.ID.String()+"/approve")
	suite.Equal(200, resp.StatusCode)

	var u models.User
	suite.Require().NoError(suite.db.First(&u, "id = ?", tasker.ID).Error)
	suite.True(u.Approved)

	var p models.TaskerProfile
	suite.Require().NoError(suite.db.First(&p, "user_id = ?", tasker.ID).Error)
	suite.Equal(models.StatusApproved, p.OnboardingStatus)
}

func (suite *AdminHandlerTestSuite) TestApproveTasker_AlreadyApproved() {
	tasker := suite.createTasker("done@example.com", true)

	resp := suite.do("POST", "/api/admin/taskers/"+tasker.ID.String()+"/approve")
	suite.Equal(404, resp.StatusCode)
}

func (suite *AdminHandlerTestSuite) TestRejectTasker() {
	tasker := suite.createTasker("reject@example.com", false)

	resp := suite.do("POST", "/api/admin/taskers/"+tasker.ID.String()+"/reject")
	suite.Equal(200, resp.StatusCode)

	var u models.User
	suite.Require().NoError(suite.db.First(&u, "id = ?", tasker.ID).Error)
	suite.False(u.Approved)

	var p models.TaskerProfile
	suite.Require().NoError(suite.db.First(&p, "user_id = ?", tasker.ID).Error)
	suite.Equal(models.StatusRejected, p.OnboardingStatus)
}

func (suite *AdminHandlerTestSuite) TestConfirmTransaction() {
	trx := models.Transaction{
		TaskID:  uuid.New(),
		PayerID: uuid.New(),
		PayeeID: uuid.New(),
		Amount:  80,
		Status:  models.TransactionStatusPending,
	}
	suite.Require().NoError(suite.db.Create(&trx).Error)

	resp := suite.do("POST", "/api/admin/transactions/"+trx.ID.String()+"/confirm")
	suite.Equal(200, resp.StatusCode)

	var got models.Transaction
	suite.Require().NoError(suite.db.First(&got, "id = ?", trx.ID).Error)
	suite.Equal(models.TransactionStatusConfirmed, got.Status)
	suite.NotNil(got.ConfirmedAt)

	// Confirmed rows stay confirmed; a second confirm conflicts.
	resp = suite.do("POST", "/api/admin/transactions/"+trx.ID.String()+"/confirm")
	suite.Equal(409, resp.StatusCode)
}

func (suite *AdminHandlerTestSuite) TestConfirmTransaction_Unknown() {
	resp := suite.do("POST", "/api/admin/transactions/"+uuid.New().String()+"/confirm")
	suite.Equal(409, resp.StatusCode)
}

func (suite *AdminHandlerTestSuite) TestGetReport() {
	trx := models.Transaction{
		TaskID:  uuid.New(),
		PayerID: uuid.New(),
		PayeeID: uuid.New(),
		Amount:  100,
		Status:  models.TransactionStatusConfirmed,
	}
	suite.Require().NoError(suite.db.Create(&trx).Error)

	resp := suite.do("GET", "/api/admin/report")
	suite.Equal(200, resp.StatusCode)
}

func TestAdminHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}
