package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	adoptionpostgres "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/persistence/postgres"
	adoptionworkflows "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/workflows"
	platformobservability "github.com/Apurer/go-gin-dog-adoption/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-dog-adoption/internal/platform/postgres"
)

// session-purger deletes expired workspace snapshots once, for use from cron when no Temporal
// worker runs.
func main() {
	_ = godotenv.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := platformobservability.NewLogger(os.Stdout, os.Getenv("LOG_FORMAT"), os.Getenv("LOG_LEVEL"))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge sessions")
	}

	purger := adoptionworkflows.NewInlineSessionPurge(adoptionpostgres.NewWorkspaceStore(db))
	purged, err := purger.PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("failed to purge sessions: %v", err)
	}
	logger.Info("session purge completed", slog.Int64("purged", purged))
}
