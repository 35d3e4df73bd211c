package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"schedulo/internal/agent"
	"schedulo/internal/config"
	"schedulo/internal/database"
	"schedulo/internal/handlers"
	"schedulo/internal/jobs"
	"schedulo/internal/logging"
	"schedulo/internal/middleware"
	"schedulo/internal/services"
	"schedulo/internal/tools"
	"schedulo/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Schedulo Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// Relational store (MySQL in production, SQLite for local dev)
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// MongoDB (optional - chat archive)
	var mongoDB *database.MongoDB
	if cfg.MongoURL != "" {
		log.Println("🔗 Connecting to MongoDB...")
		mongoDB, err = database.NewMongoDB(cfg.MongoURL, cfg.MongoDBName)
		if err != nil {
			log.Printf("⚠️ Failed to connect to MongoDB: %v (chat archive disabled)", err)
			mongoDB = nil
		} else {
			defer mongoDB.Close(context.Background())
			log.Println("✅ MongoDB connected successfully")
		}
	} else {
		log.Println("⚠️ MONGODB_URL not set - chat archive disabled")
	}

	// Redis (optional - import flags, rate limits, job locks)
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		log.Println("🔗 Connecting to Redis...")
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Redis: %v (import flags and rate limits disabled)", err)
			redisService = nil
		}
	} else {
		log.Println("⚠️ REDIS_URL not set - import flags and rate limits disabled")
	}
	if redisService != nil {
		defer redisService.Close()
	}

	// JWT auth (nil outside production means dev bypass)
	var jwtAuth *auth.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
		log.Println("✅ JWT auth initialized")
	} else if os.Getenv("ENVIRONMENT") == "production" {
		log.Fatal("❌ JWT_SECRET is required in production")
	} else {
		log.Println("⚠️ JWT_SECRET not set - auth bypass enabled (development only)")
	}

	// Domain services
	userService := services.NewUserService(db)
	tagService := services.NewTagService(db)
	scheduleService := services.NewScheduleService(db, tagService)
	timetableService := services.NewTimetableService(db)
	scoreService := services.NewScoreService(db, userService, scheduleService)
	routineService := services.NewRoutineService(userService, scheduleService, timetableService)
	crawlerService := services.NewCrawlerService(cfg.CrawlerURL, redisService)
	chatLogService := services.NewChatLogService(mongoDB)

	var sender services.Sender = services.LogSender{}
	if cfg.PushGatewayURL != "" {
		sender = services.NewHTTPPushSender(cfg.PushGatewayURL)
		log.Println("✅ Push gateway delivery enabled")
	}
	notificationService := services.NewNotificationService(db, userService, scheduleService, sender)

	metrics := services.InitMetrics()
	log.Println("✅ Prometheus metrics initialized")

	// LLM provider catalog with hot reload
	providers, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		log.Printf("⚠️ Failed to load providers from %s: %v (chatbot disabled until fixed)", cfg.ProvidersFile, err)
		providers = nil
	}
	llmService := services.NewLLMService(providers, cfg.LLMTimeout, cfg.MaxIterations)
	go watchProvidersFile(cfg.ProvidersFile, llmService)

	// Page map for navigation answers
	pageMap, err := config.LoadPageMap(cfg.PageMapFile)
	if err != nil {
		log.Printf("⚠️ Failed to load page map from %s: %v (navigation answers degraded)", cfg.PageMapFile, err)
		pageMap = nil
	}

	// Tool registry
	registry := tools.NewRegistry()
	tools.RegisterBuiltInTools(registry, tools.Deps{
		Users:      userService,
		Tags:       tagService,
		Schedules:  scheduleService,
		Timetables: timetableService,
		Crawler:    crawlerService,
	})
	log.Printf("🔧 Tool registry ready (%d tools)", registry.Count())

	// Agent graph: core planning stage, then conditional render stage
	coreAgent := agent.NewCoreAgent(llmService, registry, pageMap, metrics)
	renderAgent := agent.NewRenderAgent(metrics, agent.NewLLMReshaper(llmService))
	graph := agent.NewGraph(coreAgent, renderAgent)

	// Background jobs
	jobScheduler, err := jobs.NewScheduler(cfg, redisService, scoreService, routineService, notificationService)
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	if err := jobScheduler.Start(); err != nil {
		log.Fatalf("❌ Failed to start job scheduler: %v", err)
	}

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName:      "Schedulo v1.0",
		ReadTimeout:  180 * time.Second, // LLM turns can take a while
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  180 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("schedulo")
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
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	// Handlers
	healthHandler := handlers.NewHealthHandler(db, redisService)
	userHandler := handlers.NewUserHandler(jwtAuth, userService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService, crawlerService)
	tagHandler := handlers.NewTagHandler(tagService)
	timetableHandler := handlers.NewTimetableHandler(timetableService, crawlerService)
	chatbotHandler := handlers.NewChatbotHandler(graph, chatLogService, redisService, metrics, registry, cfg.HistoryWindow)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Routes
	app.Get("/health", healthHandler.Health)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/signup", userHandler.Signup)
	users.Post("/login", userHandler.Login)
	users.Post("/token/refresh", userHandler.RefreshToken)

	authed := middleware.JWTAuth(jwtAuth)
	users.Get("/me", authed, userHandler.Me)
	users.Patch("/me", authed, userHandler.UpdateMe)
	users.Get("/me/routine", authed, userHandler.GetRoutine)
	users.Put("/me/routine", authed, userHandler.PutRoutine)
	users.Get("/me/scores", authed, userHandler.GetScores)

	schedules := api.Group("/schedules", authed)
	schedules.Post("/", scheduleHandler.Create)
	schedules.Get("/", scheduleHandler.List)
	schedules.Post("/import", scheduleHandler.Import)
	schedules.Get("/:id", scheduleHandler.Get)
	schedules.Patch("/:id", scheduleHandler.Update)
	schedules.Delete("/:id", scheduleHandler.Delete)
	schedules.Post("/:id/complete", scheduleHandler.ToggleComplete)

	tags := api.Group("/tags", authed)
	tags.Post("/", tagHandler.Create)
	tags.Get("/", tagHandler.List)
	tags.Patch("/:id", tagHandler.Update)
	tags.Delete("/:id", tagHandler.Delete)

	timetables := api.Group("/timetables", authed)
	timetables.Post("/", timetableHandler.Create)
	timetables.Get("/", timetableHandler.List)
	timetables.Get("/export", timetableHandler.Export)
	timetables.Post("/import", timetableHandler.Import)
	timetables.Put("/:id", timetableHandler.Update)
	timetables.Delete("/:id", timetableHandler.Delete)

	chatbot := api.Group("/chatbot", authed)
	chatbot.Post("/chat", chatbotHandler.Chat)
	chatbot.Get("/tools", chatbotHandler.Tools)

	notifications := api.Group("/notifications", authed)
	notifications.Get("/", notificationHandler.Recent)
	notifications.Post("/subscriptions", notificationHandler.Subscribe)
	notifications.Delete("/subscriptions/:id", notificationHandler.Unsubscribe)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := jobScheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping job scheduler: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// watchProvidersFile hot-reloads the LLM provider catalog when the file
// changes, so keys and models can rotate without a restart.
func watchProvidersFile(filePath string, llmService *services.LLMService) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("⚠️  Failed to create file watcher: %v", err)
		return
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		log.Printf("⚠️  Failed to get absolute path for %s: %v", filePath, err)
		watcher.Close()
		return
	}

	// Watch the directory containing the file (more reliable than watching
	// the file directly, editors often replace files on save)
	dir := filepath.Dir(absPath)
	filename := filepath.Base(absPath)

	if err := watcher.Add(dir); err != nil {
		log.Printf("⚠️  Failed to watch directory %s: %v", dir, err)
		watcher.Close()
		return
	}

	log.Printf("👁️  Watching %s for changes (hot-reload enabled)", filePath)

	var debounceTimer *time.Timer
	debounceDuration := 500 * time.Millisecond

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					log.Printf("🔄 Detected changes in %s, reloading providers...", filePath)
					providers, err := config.LoadProviders(filePath)
					if err != nil {
						log.Printf("❌ Failed to reload providers: %v", err)
						return
					}
					llmService.SetProviders(providers)
					log.Printf("✅ Providers reloaded from %s", filePath)
				})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Provider file watcher error: %v", err)
		}
	}
}
