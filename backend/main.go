package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"lms/backend/config"
	"lms/backend/database"
	"lms/backend/mail"
	"lms/backend/middleware"
	"lms/backend/routes"
	"lms/backend/services"
	"lms/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger(utils.LoggerConfig{
		Prefix:       cfg.AppName,
		EnableColors: cfg.Env == "development",
	})

	// Initialize database
	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatalf("Error initializing database: %v", err)
	}

	var sender mail.Sender = mail.NewLogSender(logger)
	if cfg.SendGridAPIKey != "" {
		sender = mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.AppName, cfg.FromEmail)
	}

	var reporter utils.Reporter = utils.NewLogReporter(logger)
	if cfg.RollbarToken != "" {
		reporter = utils.NewRollbarReporter(logger, cfg.RollbarToken, cfg.Env)
	}
	defer reporter.Close()

	svc := services.New(db, logger, sender, cfg.AppName)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: middleware.ErrorHandler(reporter),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, svc, cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Println("Shutting down...")
		if err := app.Shutdown(); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	// Start server
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logger.Printf("server stopped: %v", err)
	}
}
