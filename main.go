package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"union-registration-system/handlers"
	"union-registration-system/mailer"
	"union-registration-system/models"
	"union-registration-system/services"
	"union-registration-system/utils"
	"union-registration-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // 25MB, registration forms carry photos and logos
	})

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control",
		ExposeHeaders:    "Content-Length, Content-Type, Content-Disposition, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Union{},
		&models.UnionAchievement{},
		&models.UnionGalleryImage{},
		&models.Player{},
		&models.Competition{},
		&models.CompetitionRegistration{},
		&models.CompetitionPlayerSnapshot{},
		&models.BeltPromotionTest{},
		&models.PromotionTestGroup{},
		&models.PromotionPlayerSnapshot{},
		&models.EmailOutbox{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	dispatcher, err := mailer.NewDispatcherFromEnv(db)
	if err != nil {
		log.Fatal("failed to configure mail dispatcher:", err)
	}

	unionService := services.NewUnionService(db, dispatcher)
	playerService := services.NewPlayerService(db, dispatcher)
	competitionService := services.NewCompetitionService(db)
	promotionService := services.NewPromotionService(db)
	exportService := services.NewExportService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// When mail goes through the outbox table, a background worker drains it.
	if os.Getenv("MAIL_TRANSPORT") == "outbox" {
		outboxWorker := workers.NewOutboxWorker(db, mailer.NewSMTPTransportFromEnv())
		if err := outboxWorker.Start(30 * time.Second); err != nil {
			log.Fatal("failed to start outbox worker:", err)
		}
		log.Println("✅ Email outbox worker running (every 30s)")
	}

	handlers.SetupUnionRoutes(app, unionService)
	handlers.SetupPlayerRoutes(app, playerService)
	handlers.SetupCompetitionRoutes(app, competitionService, exportService)
	handlers.SetupPromotionRoutes(app, promotionService, exportService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
