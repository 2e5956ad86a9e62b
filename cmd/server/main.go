package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Skufu/GlucoRisk/internal/advice"
	"github.com/Skufu/GlucoRisk/internal/assessment"
	"github.com/Skufu/GlucoRisk/internal/predict"
	"github.com/Skufu/GlucoRisk/internal/store"
	"github.com/Skufu/GlucoRisk/internal/thresholds"
)

type Config struct {
	Port            string
	DBDriver        string
	DatabaseURL     string
	ModelServiceURL string
	ModelTimeout    time.Duration
	ThresholdsFile  string
	EnableAdmin     bool
}

func main() {
	gin.SetMode(getEnv("GIN_MODE", "release"))

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	th := thresholds.Default()
	if cfg.ThresholdsFile != "" {
		th, err = thresholds.Load(cfg.ThresholdsFile)
		if err != nil {
			log.Fatalf("thresholds error: %v", err)
		}
		log.Printf("loaded thresholds from %s", cfg.ThresholdsFile)
	}

	db, err := store.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Fatalf("ping db: %v", err)
	}

	svc := assessment.NewService(
		predict.NewClient(cfg.ModelServiceURL, cfg.ModelTimeout),
		advice.New(th),
		db,
	)

	router := setupRouter(routerDeps{
		db:          db,
		assessments: svc,
		enableAdmin: cfg.EnableAdmin,
		staticRoot:  detectStaticRoot(),
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	log.Printf("server listening on :%s (db=%s, admin=%t)", cfg.Port, cfg.DBDriver, cfg.EnableAdmin)
	waitForShutdown(server)
}

func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ModelServiceURL: os.Getenv("MODEL_SERVICE_URL"),
		ThresholdsFile:  os.Getenv("THRESHOLDS_FILE"),
		EnableAdmin:     strings.EqualFold(getEnv("ENABLE_ADMIN", "false"), "true"),
	}

	timeout, err := time.ParseDuration(getEnv("MODEL_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("MODEL_TIMEOUT: %w", err)
	}
	cfg.ModelTimeout = timeout

	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "diabetes_records.db"
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", cfg.DBDriver)
	}

	if cfg.ModelServiceURL == "" {
		return nil, fmt.Errorf("MODEL_SERVICE_URL is required")
	}

	return cfg, nil
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// detectStaticRoot looks for the frontend's web/ directory next to the working
// directory or up to two levels above it. It returns "" when there is none, and
// the router then serves no static files.
func detectStaticRoot() string {
	startDir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findStaticRoot(startDir)
}

func findStaticRoot(startDir string) string {
	candidates := []string{
		startDir,
		filepath.Dir(startDir),
		filepath.Dir(filepath.Dir(startDir)),
	}

	for _, dir := range candidates {
		web := filepath.Join(dir, "web")
		if fileExists(filepath.Join(web, "index.html")) {
			return web
		}
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
