package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/assembleme/platform_be_assembly/internal/config"
	"github.com/assembleme/platform_be_assembly/internal/db"
	"github.com/assembleme/platform_be_assembly/internal/handlers"
	"github.com/assembleme/platform_be_assembly/internal/middleware"
	"github.com/assembleme/platform_be_assembly/internal/models"
	"github.com/assembleme/platform_be_assembly/internal/realtime"
	"github.com/assembleme/platform_be_assembly/internal/services/lifecycle"
	"github.com/assembleme/platform_be_assembly/internal/services/notify"
	"github.com/assembleme/platform_be_assembly/internal/services/report"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	rdb := realtime.NewRedis()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Redis not reachable:", err)
	}

	hub := realtime.NewHub()
	go hub.Run()

	if err := gdb.AutoMigrate(
		&models.User{},
		&models.TaskerProfile{},
		&models.TaskRequest{},
		&models.Offer{},
		&models.Transaction{},
		&models.Review{},
		&models.Message{},
		&models.Notification{},
	); err != nil {
		log.Fatal(err)
	}

	lifecycleSvc := lifecycle.New(gdb, hub, rdb)
	notifySvc := notify.New(cfg.NotifyWebhookURL, cfg.NotifySecret)
	reportSvc := report.New(gdb)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendBaseURL,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))

	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Static("/uploads", cfg.UploadDir)

	authH := &handlers.AuthHandler{
		DB:        gdb,
		JWTSecret: cfg.JWTSecret,
		Expires:   cfg.JWTExpiresMin,
	}
	googleH := &handlers.GoogleOAuthHandler{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		Expires:         cfg.JWTExpiresMin,
		GoogleClientID:  cfg.GoogleClientID,
		GoogleSecret:    cfg.GoogleSecret,
		GoogleRedirect:  cfg.GoogleRedirect,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}
	categoryH := handlers.NewCategoryHandler(gdb)
	taskH := handlers.NewTaskHandler(gdb, lifecycleSvc, notifySvc, cfg.UploadDir, cfg.AppBaseURL)
	offerH := handlers.NewOfferHandler(gdb, hub, rdb)
	chatH := handlers.NewChatHandler(gdb, hub, rdb)
	reviewH := handlers.NewReviewHandler(gdb)
	notifH := handlers.NewNotificationHandler(gdb)
	adminH := handlers.NewAdminHandler(gdb, reportSvc)
	dashH := handlers.NewTaskerDashboardHandler(gdb)
	onboardH := handlers.NewTaskerOnboardingHandler(gdb, cfg.UploadDir, cfg.AppBaseURL)

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Post("/auth/logout", authH.Logout)
	api.Get("/auth/google/start", googleH.GoogleStart)
	api.Get("/auth/google/callback", googleH.GoogleCallback)
	api.Get("/categories", categoryH.GetCategories)

	// protected (JWT from cookie)
	protected := api.Group("/",
		middleware.JWTFromCookie(cfg.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/me", func(c *fiber.Ctx) error {
		uid := c.Locals("userId")

		var user models.User
		if err := gdb.First(&user, "id = ?", uid).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "User not found",
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"id":        user.ID,
				"full_name": user.FullName,
				"email":     user.Email,
				"role":      user.Role,
				"approved":  user.Approved,
				"rating":    user.Rating,
			},
		})
	})

	// tasks
	protected.Post("/tasks",
		middleware.RequireRoles("client"),
		taskH.CreateTask,
	)
	protected.Get("/tasks", taskH.ListTasks)
	protected.Get("/tasks/:id", taskH.GetTask)
	protected.Post("/tasks/:id/accept-offer",
		middleware.RequireRoles("client"),
		taskH.AcceptOffer,
	)
	protected.Post("/tasks/:id/complete",
		middleware.RequireApprovedTasker(gdb),
		taskH.Complete,
	)
	protected.Post("/tasks/:id/cancel",
		middleware.RequireRoles("client"),
		taskH.Cancel,
	)

	// offers
	protected.Post("/tasks/:id/offers",
		middleware.RequireApprovedTasker(gdb),
		offerH.CreateOffer,
	)
	protected.Get("/tasks/:id/offers", offerH.GetOffers)
	protected.Post("/offers/:id/withdraw",
		middleware.RequireRoles("tasker"),
		offerH.Withdraw,
	)
	protected.Get("/offers/mine",
		middleware.RequireRoles("tasker"),
		offerH.MyOffers,
	)

	// task chat
	protected.Get("/tasks/:id/messages", chatH.GetMessages)
	protected.Post("/tasks/:id/messages", chatH.SendMessage)
	protected.Patch("/tasks/:id/messages/read", chatH.MarkAsRead)

	// reviews
	protected.Post("/tasks/:id/reviews", reviewH.CreateReview)
	protected.Get("/users/:id/reviews", reviewH.ListForUser)

	// notifications
	protected.Get("/notifications", notifH.List)
	protected.Patch("/notifications/:id/read", notifH.MarkRead)
	protected.Patch("/notifications/read-all", notifH.MarkAllRead)

	// tasker dashboard
	dash := protected.Group("/tasker", middleware.RequireRoles("tasker"))
	dash.Get("/dashboard/stats", dashH.GetStats)
	dash.Get("/jobs", dashH.GetJobs)
	dash.Get("/earnings", dashH.GetEarnings)

	// tasker onboarding
	onb := protected.Group("/tasker/onboarding", middleware.RequireRoles("tasker"))
	onb.Get("/", onboardH.Get)
	onb.Post("/photo", onboardH.UploadPhoto)
	onb.Patch("/profile", onboardH.UpdateProfile)
	onb.Post("/submit", onboardH.Submit)

	// admin back office
	admin := protected.Group("/admin", middleware.RequireRoles("admin"))
	admin.Get("/taskers/pending", adminH.ListPendingTaskers)
	admin.Post("/taskers/:id/approve", adminH.ApproveTasker)
	admin.Post("/taskers/:id/reject", adminH.RejectTasker)
	admin.Get("/transactions", adminH.ListTransactions)
	admin.Post("/transactions/:id/confirm", adminH.ConfirmTransaction)
	admin.Get("/report", adminH.GetReport)

	// WebSocket endpoint (auth via query param, no JWT middleware)
	app.Get("/ws/chat", websocket.New(chatH.WebSocketHandler))

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
