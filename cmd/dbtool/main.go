package main

import (
	"context"
	"flag"
	"fleet-dispatch-service/internal/adapters/cache"
	"fleet-dispatch-service/internal/config"
	"fleet-dispatch-service/internal/platform/db"
	"fleet-dispatch-service/internal/platform/obs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	prune := flag.Bool("prune", false, "delete travel-time cache entries older than CACHE_TTL")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	logger, err := obs.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	logger.Info("initializing database schema")
	if err := cache.InitSchema(conn); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	logger.Info("schema ready")

	if !*prune {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := cache.NewSQLTravelTimeCache(conn, cfg.CacheTTL, logger).Prune(ctx)
	if err != nil {
		log.Fatalf("prune failed: %v", err)
	}
	logger.Info("pruned travel-time cache", "rows", n, "ttl", cfg.CacheTTL.String())
}
