package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"applyflow/config"
	"applyflow/controllers"
	"applyflow/database"
	"applyflow/middleware"
	"applyflow/models"
	"applyflow/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := config.GetAppConfig()

	// Persistence is optional; the engine still applies without it.
	var appModel *models.ApplicationModel
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Printf("⚠ Database unavailable, running without persistence: %v", err)
	} else {
		appModel = models.NewApplicationModel(db)
		if err := appModel.CreateTable(); err != nil {
			log.Printf("⚠ Could not ensure applications table: %v", err)
			appModel = nil
		}
	}

	pipeline := services.NewApplicationPipeline(cfg.Automation, cfg.LLM)
	jwtService := services.NewJWTService(cfg.JWTSecret)

	authController := controllers.NewAuthController(cfg, jwtService)
	automationController := controllers.NewAutomationController(
		cfg, pipeline, pipeline.LLM(), pipeline.Screenshots(), appModel)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.NewRateLimiter(100, time.Minute).Limit())
	r.Use(middleware.MaxRequestSize(1 << 20))
	r.Use(middleware.RequireJSON())

	r.Static("/static", "./static")

	r.GET("/api/health", automationController.Health)
	r.POST("/api/auth/login", authController.Login)

	protected := r.Group("/api/automation")
	protected.Use(middleware.Auth(jwtService))
	{
		protected.POST("/apply", automationController.Apply)
		protected.GET("/applications", automationController.ListApplications)
	}

	log.Printf("✓ applyflow listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
