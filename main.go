package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"commander-tracker/handlers"
	"commander-tracker/middleware"
	"commander-tracker/repository"
	"commander-tracker/services"
	"commander-tracker/utils"
	"commander-tracker/workers"

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
		AppName: "commander-tracker",
	})

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	originsList := strings.Split(allowedOrigins, ",")
	for i, origin := range originsList {
		originsList[i] = strings.TrimSpace(origin)
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(originsList, ","),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Group-Secret",
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	store := repository.NewGormStore(db)
	if err := store.Migrate(); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	cache := repository.NewSnapshotCache(store, cacheTTLFromEnv(), historyLimitFromEnv())
	trackerService := services.NewTrackerService(store, cache)
	authorizer := middleware.NewSharedSecretAuthorizerFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Daily off-site history backup, only when R2 is configured.
	if utils.R2Configured() {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		snapshotWorker := workers.NewSnapshotWorker(store)
		snapshotWorker.Start(ctx)
		defer snapshotWorker.Stop()
	} else {
		log.Println("⚠️  R2_BUCKET_NAME not set — history snapshots disabled")
	}

	handlers.SetupTrackerRoutes(app, trackerService, authorizer)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "5200"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Commander Tracker running on http://localhost:%s", port)
	log.Printf("✅ Snapshot cache TTL: %s, history limit: %d rows", cacheTTLFromEnv(), historyLimitFromEnv())
	log.Println("✅ Recording endpoint gated by GROUP_SECRET")

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}

func cacheTTLFromEnv() time.Duration {
	raw := os.Getenv("CACHE_TTL_SECONDS")
	if raw == "" {
		return repository.DefaultCacheTTL
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		log.Printf("⚠️  invalid CACHE_TTL_SECONDS %q, using default", raw)
		return repository.DefaultCacheTTL
	}
	return time.Duration(secs) * time.Second
}

func historyLimitFromEnv() int {
	raw := os.Getenv("HISTORY_LIMIT")
	if raw == "" {
		return repository.DefaultHistoryLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		log.Printf("⚠️  invalid HISTORY_LIMIT %q, using default", raw)
		return repository.DefaultHistoryLimit
	}
	return limit
}
