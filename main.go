package main

import (
	"log"
	"time"

	"lms/ai"
	"lms/config"
	"lms/database"
	authRoutes "lms/routers/authRoutes"
	chatRoutes "lms/routers/chatRoutes"
	courseRoutes "lms/routers/courseRoutes"
	paymentRoutes "lms/routers/paymentRoutes"
	reviewRoutes "lms/routers/reviewRoutes"
	supportRoutes "lms/routers/supportRoutes"
	"lms/services/certificate"
	"lms/services/progress"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	db := database.Database.Db

	issuer := certificate.NewIssuer(db)
	progressService := progress.NewService(db, issuer)
	progressService.SetNotifier(utils.CompletionEmails{})

	aiClient := ai.NewClient(config.AppConfig.OpenAIApiURL, config.AppConfig.OpenAIApiKey, config.AppConfig.OpenAIModel)
	aiCache := ai.NewResponseCache(100, 24*time.Hour)
	aiLimiter := ai.NewRateLimiter(config.AppConfig.ChatRateLimit, time.Duration(config.AppConfig.ChatRateWindow)*time.Second)
	aiService := ai.NewService(db, aiClient, aiCache, aiLimiter)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",  // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve static files from the public folder
	app.Static("/", "./public")

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app, progressService)
	courseRoutes.SetupAdminCourseRoutes(app)
	reviewRoutes.SetupReviewRoutes(app)
	paymentRoutes.SetupPaymentRoutes(app, progressService)
	chatRoutes.SetupChatRoutes(app, aiService)
	supportRoutes.SetupSupportRoutes(app)

	utils.InitializeProgressScheduler(progressService)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
