package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/passbi/trackmaster/internal/api"
	"github.com/passbi/trackmaster/internal/cache"
	"github.com/passbi/trackmaster/internal/db"
	"github.com/passbi/trackmaster/internal/graph"
	"github.com/passbi/trackmaster/internal/middleware"
	"github.com/passbi/trackmaster/internal/routing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	log.Println("Starting Trackmaster API server...")

	// Initialize database connection
	pool, err := db.GetDB()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("✓ Database connection established")

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("Failed to prepare schema: %v", err)
	}

	// Redis is optional: without it routes are cached in-process only
	rdb, err := cache.GetClient()
	if err != nil {
		log.Printf("Warning: %v, continuing with local cache only", err)
		rdb = nil
	} else {
		defer cache.Close()
		log.Println("✓ Redis connection established")
	}

	// Load routing graph into memory
	store := graph.GetStore()
	if err := store.LoadFromDB(context.Background(), pool); err != nil {
		log.Fatalf("Failed to load routing graph: %v", err)
	}
	log.Println("✓ Routing graph loaded into memory")

	routeCache := cache.New(rdb, cache.LoadConfigFromEnv())

	checks := []api.HealthCheck{{Name: "database", Check: db.HealthCheck}}
	if rdb != nil {
		checks = append(checks, api.HealthCheck{
			Name:    "redis",
			Check:   cache.HealthCheck,
			Details: func() map[string]interface{} { return cache.PoolStats(rdb) },
		})
	}

	enableRateLimit := getEnvBool("ENABLE_RATE_LIMIT", true)
	enableAnalytics := getEnvBool("ENABLE_ANALYTICS", true)
	log.Printf("Configuration: RateLimit=%v, Analytics=%v", enableRateLimit, enableAnalytics)

	opts := api.Options{
		Router: routing.NewRouter(store, routing.LoadConfigFromEnv()),
		Cache:  routeCache,
		Checks: checks,
	}
	if enableAnalytics {
		opts.Analytics = pool
	}
	handler := api.NewHandler(opts)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Trackmaster API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	if enableRateLimit && rdb != nil {
		app.Use("/v2", middleware.RateLimitMiddleware(rdb, middleware.RateLimits{
			PerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 10),
			PerDay:    getEnvInt("RATE_LIMIT_PER_DAY", 10000),
		}))
		log.Println("✓ Rate limiting middleware enabled")
	}

	if enableAnalytics {
		app.Use("/v2", middleware.AnalyticsMiddleware(pool))
		log.Println("✓ Analytics middleware enabled")
	}

	// Routes
	handler.Register(app)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).JSON(fiber.Map{
			"error": "endpoint not found",
			"path":  c.Path(),
		})
	})

	// SIGHUP reloads the graph without a restart
	go func() {
		hupChan := make(chan os.Signal, 1)
		signal.Notify(hupChan, syscall.SIGHUP)
		for range hupChan {
			log.Println("Reloading routing graph...")
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := store.LoadFromDB(ctx, pool); err != nil {
				log.Printf("Graph reload failed, keeping current graph: %v", err)
			} else {
				// Keys carry the graph generation, so Redis entries of the
				// old graph are never read again and expire with CACHE_TTL
				routeCache.Purge()
			}
			cancel()
		}
	}()

	port := getEnv("API_PORT", "8080")
	addr := fmt.Sprintf(":%s", port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("📍 Route search: http://localhost%s/v2/route-search?from=STATION&to=STATION", addr)
	log.Printf("❤️  Health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// customErrorHandler handles errors returned from handlers
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
