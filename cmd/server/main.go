package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/crossposthq/crosspost/configs"
	"github.com/crossposthq/crosspost/internal/api/handlers"
	"github.com/crossposthq/crosspost/internal/api/middleware"
	job "github.com/crossposthq/crosspost/internal/jobs"
	"github.com/crossposthq/crosspost/internal/lock"
	"github.com/crossposthq/crosspost/internal/provider"
	"github.com/crossposthq/crosspost/internal/queue"
	"github.com/crossposthq/crosspost/internal/repository"
	"github.com/crossposthq/crosspost/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	asynqClient := asynq.NewClient(redisConn)
	defer asynqClient.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	postTargetRepo := repository.NewPostTargetRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	providerConfigRepo := repository.NewProviderConfigRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)

	registry := provider.NewRegistry()
	registry.Register(provider.VariantAyrshare, provider.NewAyrshareFactory(cfg.AyrshareAPIURL))
	registry.Register(provider.VariantBuffer, provider.NewBufferFactory(cfg.BufferAPIURL))

	resolver := service.NewProviderResolver(cfg, providerConfigRepo, registry)
	postLocker := lock.NewPostLocker(rdb, 2*time.Minute)
	taskClient := queue.NewClient(asynqClient)

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo)
	r2Service := service.NewR2Service(cfg)
	mediaService := service.NewMediaService(mediaAssetRepo, r2Service)
	postService := service.NewPostService(db, postRepo, postTargetRepo, socialAccountRepo, campaignRepo, resolver, postLocker, taskClient)
	calendarService := service.NewCalendarService(postRepo)
	campaignService := service.NewCampaignService(campaignRepo, postRepo)
	accountService := service.NewAccountService(socialAccountRepo, resolver)
	analyticsService := service.NewAnalyticsService(postRepo, postTargetRepo, socialAccountRepo, campaignRepo, analyticsRepo, resolver)
	providerConfigService := service.NewProviderConfigService(cfg, providerConfigRepo, registry, resolver)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)

	authMiddleware := middleware.NewAuthMiddleware(cfg, apiKeyService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy", "timestamp": time.Now().UTC()})
	})

	auth := handlers.NewAuthHandler(cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_keys", apiKeys.CreateApiKey)
	api.Get("/api_keys", apiKeys.ListKeys)
	api.Delete("/api_keys/:id", apiKeys.RemoveAPIKey)

	providerConfig := handlers.NewProviderConfigHandler(providerConfigService)
	api.Post("/providers", providerConfig.SaveConfig)
	api.Get("/providers", providerConfig.ListConfigs)
	api.Get("/providers/variants", providerConfig.ListVariants)
	api.Post("/providers/test", providerConfig.TestConfig)
	api.Delete("/providers/:id", providerConfig.RemoveConfig)

	account := handlers.NewAccountHandler(accountService)
	api.Post("/accounts", account.RegisterAccount)
	api.Get("/accounts", account.ListAccounts)
	api.Post("/accounts/sync", account.SyncAccounts)
	api.Get("/accounts/test", account.TestConnection)
	api.Get("/accounts/:id", account.GetAccount)
	api.Post("/accounts/:id/primary", account.SetPrimaryAccount)
	api.Delete("/accounts/:id", account.RemoveAccount)

	post := handlers.NewPostHandler(postService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts/bulk", post.BulkSchedule)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.RemovePost)
	api.Get("/posts/:id/targets", post.GetPostTargets)
	api.Post("/posts/:id/schedule", post.SchedulePost)
	api.Post("/posts/:id/publish", post.PublishPostNow)
	api.Post("/posts/:id/cancel", post.CancelPost)
	api.Post("/posts/:id/reschedule", post.ReschedulePost)

	calendar := handlers.NewCalendarHandler(calendarService)
	api.Get("/calendar", calendar.GetCalendar)

	campaign := handlers.NewCampaignHandler(campaignService)
	api.Post("/campaigns", campaign.CreateCampaign)
	api.Get("/campaigns", campaign.ListCampaigns)
	api.Get("/campaigns/:id", campaign.GetCampaign)
	api.Put("/campaigns/:id", campaign.UpdateCampaign)
	api.Get("/campaigns/:id/posts", campaign.ListCampaignPosts)
	api.Delete("/campaigns/:id", campaign.RemoveCampaign)

	analytics := handlers.NewAnalyticsHandler(analyticsService)
	api.Get("/analytics", analytics.ListAnalytics)
	api.Post("/analytics/sync", analytics.SyncRecent)
	api.Get("/analytics/summary", analytics.UserSummary)
	api.Get("/analytics/posts/:id", analytics.ListPostAnalytics)
	api.Post("/analytics/posts/:id/sync", analytics.SyncPost)
	api.Get("/analytics/posts/:id/summary", analytics.PostSummary)
	api.Get("/analytics/accounts/:id/summary", analytics.AccountSummary)
	api.Get("/analytics/campaigns/:id/summary", analytics.CampaignSummary)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media", media.UploadMedia)
	api.Get("/media", media.ListMedia)

	// cron jobs
	analyticsSyncJob := job.NewAnalyticsSyncJob(providerConfigRepo, analyticsService, 7*24*time.Hour)

	c := cron.New()
	c.AddFunc("@every 06h00m00s", analyticsSyncJob.SyncAll)
	c.Start()

	// queue
	queueW := queue.NewQueue(postRepo, postTargetRepo, analyticsService, taskClient)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)
		mux.HandleFunc(queue.TaskTypeSyncAnalytics, queueW.HandleSyncAnalyticsTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
