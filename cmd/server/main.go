package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/smartinventory/backend/internal/dataset"
	"github.com/smartinventory/backend/internal/delivery/http"
	"github.com/smartinventory/backend/internal/domain"
	"github.com/smartinventory/backend/internal/repository/memory"
	"github.com/smartinventory/backend/internal/repository/postgres"
	"github.com/smartinventory/backend/internal/repository/sqlite"
	"github.com/smartinventory/backend/internal/service"
	"github.com/smartinventory/backend/pkg/logging"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	log := logging.Init("smartinventory-backend")
	if envErr != nil {
		log.Info("no .env file found, using system environment")
	}

	cfg := loadConfig()

	// History store: postgres, then sqlite, then in-memory
	historyRepo, closeRepo := openHistory(cfg, log)
	defer closeRepo()

	// Reference data
	var shelfLife []domain.ShelfLifeEntry
	if entries, err := dataset.LoadShelfLifeFile(cfg.ShelfLifeCSV); err != nil {
		log.Warn("shelf life table not loaded, every item defaults to 7 days", "path", cfg.ShelfLifeCSV, "error", err)
	} else {
		shelfLife = entries
		log.Info("shelf life table loaded", "items", len(entries))
	}

	var wastage *dataset.Wastage
	if data, err := dataset.LoadWastageFile(cfg.WastageCSV); err != nil {
		log.Warn("wastage dataset not loaded, global waste endpoints disabled", "path", cfg.WastageCSV, "error", err)
	} else {
		wastage = &data
		log.Info("wastage dataset loaded", "rows", len(data.Records))
	}

	// Loss model is isolated from the rest of startup: without it only the
	// learned path is unavailable.
	var (
		estimator   service.LossEstimator
		modelHealth http.HealthChecker
	)
	switch {
	case cfg.MLServiceURL != "":
		bridge := service.NewMLBridge(cfg.MLServiceURL, 10*time.Second)
		estimator, modelHealth = bridge, bridge
		log.Info("using remote loss model", "url", cfg.MLServiceURL)
	default:
		model, err := service.LoadTreeEnsemble(cfg.ModelPath)
		if err != nil {
			log.Error("loss model unavailable, learned path disabled", "path", cfg.ModelPath, "error", err)
		} else {
			estimator = model
			log.Info("loss model loaded", "model", model.Info().Model, "trees", model.Info().Trees)
		}
	}

	// Dependency Injection: Services
	metrics := service.NewMetrics()
	weatherSvc := service.NewWeatherService(cfg.WeatherAPIKey, cfg.WeatherTimeout,
		service.WithRateLimit(cfg.WeatherRPS, cfg.WeatherBurst),
		service.WithWeatherMetrics(metrics),
	)
	var forecasts service.ForecastSource = weatherSvc
	if cfg.WeatherCacheTTL > 0 {
		forecasts = service.NewCachedForecastSource(weatherSvc, cfg.WeatherCacheTTL)
	}
	if cfg.WeatherAPIKey == "" {
		log.Warn("WEATHER_API_KEY not set, forecasts will be unavailable")
	}

	resolver := service.NewShelfLifeResolver(shelfLife, nil)
	engine := service.NewSpoilageEngine(resolver, estimator, historyRepo,
		service.WithMetrics(metrics),
		service.WithLogger(log),
	)
	recSvc := service.NewRecommendationService(forecasts, engine, historyRepo, cfg.WeatherTimeout)
	wasteSvc := service.NewWasteService(wastage)

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "SmartInventory API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Routes
	handler := http.NewHandler(recSvc, wasteSvc, historyRepo, modelHealth)
	http.SetupRoutes(app, handler, metrics.Registry())

	// Graceful shutdown
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited gracefully")
}

type Config struct {
	Port            string
	Env             string
	WeatherAPIKey   string
	WeatherTimeout  time.Duration
	WeatherRPS      float64
	WeatherBurst    int
	WeatherCacheTTL time.Duration
	DatabaseURL     string
	HistoryDBPath   string
	ShelfLifeCSV    string
	WastageCSV      string
	ModelPath       string
	MLServiceURL    string
	CORSOrigins     string
}

func loadConfig() *Config {
	return &Config{
		Port:            getEnv("PORT", "8000"),
		Env:             getEnv("GO_ENV", "development"),
		WeatherAPIKey:   getEnv("WEATHER_API_KEY", ""),
		WeatherTimeout:  getEnvDuration("WEATHER_TIMEOUT", 5*time.Second),
		WeatherRPS:      getEnvFloat("WEATHER_RPS", 2),
		WeatherBurst:    int(getEnvFloat("WEATHER_BURST", 4)),
		WeatherCacheTTL: getEnvDuration("WEATHER_CACHE_TTL", 10*time.Minute),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		HistoryDBPath:   getEnv("HISTORY_DB_PATH", ""),
		ShelfLifeCSV:    getEnv("SHELF_LIFE_CSV", "data/shelf_life.csv"),
		WastageCSV:      getEnv("WASTAGE_CSV", "data/wastage.csv"),
		ModelPath:       getEnv("MODEL_PATH", "data/spoilage_model.yaml"),
		MLServiceURL:    getEnv("ML_SERVICE_URL", ""),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return d
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(getEnv(key, "")), 64); err == nil {
		return f
	}
	return defaultValue
}

// openHistory picks the history backend and returns a close func for it
func openHistory(cfg *Config, log *slog.Logger) (domain.HistoryRepository, func()) {
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err == nil {
			err = pool.Ping(ctx)
		}
		if err == nil {
			repo := postgres.NewPostgresRepository(pool)
			if err = repo.EnsureSchema(ctx); err == nil {
				log.Info("history store: postgres")
				return repo, pool.Close
			}
		}
		if pool != nil {
			pool.Close()
		}
		log.Warn("could not use postgres history store", "error", err)
	}

	if cfg.HistoryDBPath != "" {
		store, err := sqlite.NewHistoryStorage(cfg.HistoryDBPath)
		if err == nil {
			log.Info("history store: sqlite", "path", cfg.HistoryDBPath)
			return store, func() { store.Close() }
		}
		log.Warn("could not use sqlite history store", "error", err)
	}

	log.Info("history store: in-memory")
	return memory.NewHistoryStore(), func() {}
}
