package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"inkmemory/internal/config"
	"inkmemory/internal/database"
	"inkmemory/internal/handlers"
	"inkmemory/internal/jobs"
	"inkmemory/internal/logging"
	"inkmemory/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Ink & Memory server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, DB: %s)", cfg.Port, cfg.DatabasePath)

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Services
	analysisService := services.NewAnalysisService(
		cfg.AnalysisBaseURL,
		cfg.AnalysisAPIKey,
		cfg.AnalysisTimeout,
		cfg.AnalysisRate,
	)

	personaService := services.NewPersonaService(cfg.PersonasPath)
	if err := personaService.Watch(); err != nil {
		log.Printf("⚠️ Failed to watch personas file: %v", err)
	}
	defer personaService.Stop()

	sessionService := services.NewSessionService(db, analysisService, cfg.EnergyThreshold, cfg.AnalysisTimeout)
	sessionService.SetPersonaService(personaService)

	preferencesService := services.NewPreferencesService(db, personaService)
	reportService := services.NewReportService(db, analysisService)

	nightlyReport, err := jobs.NewNightlyReport(reportService, cfg.ReportHour)
	if err != nil {
		log.Fatalf("❌ Failed to create nightly report job: %v", err)
	}
	if err := nightlyReport.Start(); err != nil {
		log.Fatalf("❌ Failed to start nightly report job: %v", err)
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Ink & Memory v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    4 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("inkmemory")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	app.Use("/api", limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
	}))

	// Handlers
	healthHandler := handlers.NewHealthHandler(sessionService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	editorHandler := handlers.NewEditorHandler(sessionService)
	commentHandler := handlers.NewCommentHandler(sessionService)
	personaHandler := handlers.NewPersonaHandler(personaService)
	preferencesHandler := handlers.NewPreferencesHandler(preferencesService)
	reportHandler := handlers.NewReportHandler(reportService)
	editorWSHandler := handlers.NewEditorWebSocketHandler(sessionService)

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	api.Post("/sessions", sessionHandler.Create)
	api.Get("/sessions", sessionHandler.List)
	api.Get("/sessions/:id", sessionHandler.Get)
	api.Put("/sessions/:id", sessionHandler.Rename)
	api.Delete("/sessions/:id", sessionHandler.Delete)

	api.Get("/sessions/:id/state", editorHandler.GetState)
	api.Put("/sessions/:id/cells/:cellId", editorHandler.UpdateText)
	api.Delete("/sessions/:id/cells/:cellId", editorHandler.DeleteCell)
	api.Post("/sessions/:id/cells/:cellId/widgets", editorHandler.InsertWidget)
	api.Post("/sessions/:id/widgets", editorHandler.AddWidget)
	api.Put("/sessions/:id/widgets/:cellId", editorHandler.UpdateWidgetData)

	api.Get("/sessions/:id/comments/:commentId", commentHandler.Get)
	api.Post("/sessions/:id/comments/:commentId/chat", commentHandler.Chat)
	api.Post("/sessions/:id/comments/:commentId/feedback", commentHandler.Feedback)

	api.Get("/personas", personaHandler.List)
	api.Get("/personas/:id", personaHandler.Get)

	api.Get("/preferences", preferencesHandler.Get)
	api.Put("/preferences", preferencesHandler.Update)

	api.Get("/reports", reportHandler.List)
	api.Post("/reports/:type", reportHandler.Generate)

	// Editor WebSocket endpoint
	app.Use("/ws/sessions/:id", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/sessions/:id", websocket.New(editorWSHandler.HandleConnection))

	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("✍️ Editor endpoint: ws://localhost:%s/ws/sessions/:id", cfg.Port)
	log.Printf("🕐 Nightly report scheduled at %02d:00 UTC", cfg.ReportHour)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := nightlyReport.Stop(); err != nil {
			log.Printf("⚠️ Error stopping nightly report job: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
