package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	controller "github.com/servana/action-center/controller"
	"github.com/servana/action-center/initializers"
	middleware "github.com/servana/action-center/middleware"
	service "github.com/servana/action-center/service"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Printf("[init] continuing without .env: %s", err)
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	svc := service.NewActionCenterService(
		initializers.DB,
		initializers.ConnectElasticsearch(),
		initializers.ConnectS3(),
		service.NewWebhookRelay(),
	)
	ctrl := controller.NewActionCenterController(svc)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.GlobalRateLimiter.Limit())

	// Healthcheck endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Read surface
	router.GET("/action-center/summary", ctrl.GetSummary)
	router.GET("/action-center/vocabulary", ctrl.GetVocabulary)
	router.GET("/action-center/search", ctrl.SearchItems)
	router.GET("/action-center/queues/:queue/items", ctrl.ListQueue)
	router.GET("/action-items/:id", ctrl.GetItem)
	router.GET("/action-items/:id/notes", ctrl.GetNotes)
	router.GET("/action-items/:id/timeline", ctrl.GetTimeline)

	// Intake feed from originating systems
	router.POST("/action-items",
		middleware.StrictRateLimiter.Limit(),
		ctrl.CreateItem)

	// Mutations require an acting admin and stricter rate limits
	mutate := router.Group("/action-items", middleware.RequireActor(), middleware.StrictRateLimiter.Limit())
	mutate.POST("/:id/assign", ctrl.AssignItem)
	mutate.POST("/:id/resolve", ctrl.ResolveItem)
	mutate.POST("/:id/snooze", ctrl.SnoozeItem)
	mutate.POST("/:id/actions", ctrl.PerformAction)
	mutate.POST("/:id/retry-webhook", ctrl.RetryWebhook)
	mutate.POST("/:id/notes", ctrl.AddNote)
	mutate.POST("/:id/attachments", ctrl.UploadAttachment)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	router.Run(":" + port)
}
