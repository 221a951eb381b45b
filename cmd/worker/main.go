package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	adoptionmemory "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/memory"
	adoptionpostgres "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
	sessionactivities "github.com/Apurer/go-gin-dog-adoption/internal/durable/temporal/activities/sessions"
	sessionworkflows "github.com/Apurer/go-gin-dog-adoption/internal/durable/temporal/workflows/sessions"
	"github.com/Apurer/go-gin-dog-adoption/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-gin-dog-adoption/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-dog-adoption/internal/platform/postgres"
	platformtemporal "github.com/Apurer/go-gin-dog-adoption/internal/platform/temporal"
)

const serviceName = "dog-adoption-worker"

// worker runs the scheduled session purge on the SESSION_PURGE task queue.
func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := instruments.Logger
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()

	store, cleanupStore := buildWorkspaceStore(ctx, logger)
	defer cleanupStore()

	settings := platformtemporal.SettingsFromEnv()
	temporalClient, err := platformtemporal.Dial(settings, instruments, "temporal-worker")
	if err != nil {
		return fmt.Errorf("failed to create Temporal client: %w", err)
	}
	defer temporalClient.Close()

	activities := sessionactivities.NewActivities(store)
	w := worker.New(temporalClient, sessionworkflows.SessionPurgeTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(sessionworkflows.SessionPurgeWorkflow, workflow.RegisterOptions{Name: sessionworkflows.SessionPurgeWorkflowName})
	w.RegisterActivityWithOptions(activities.PurgeExpired, activity.RegisterOptions{Name: sessionactivities.PurgeExpiredActivityName})

	logger.Info("session purge worker listening",
		slog.String("taskQueue", sessionworkflows.SessionPurgeTaskQueue),
		slog.String("namespace", settings.Namespace),
	)
	interrupt := make(chan interface{})
	go func() {
		<-ctx.Done()
		close(interrupt)
	}()
	if err := w.Run(interrupt); err != nil {
		return fmt.Errorf("temporal worker exited: %w", err)
	}
	logger.Info("session purge worker stopped")
	return nil
}

// buildWorkspaceStore must reach the same store as the API; the in-memory fallback only makes
// sense for local runs where nothing is persisted anyway.
func buildWorkspaceStore(ctx context.Context, logger *slog.Logger) (ports.WorkspaceStore, func()) {
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger, platformpostgres.WithMigrations(migrations.Run))
	if db == nil {
		return adoptionmemory.NewWorkspaceStore(), cleanup
	}
	logger.Info("worker workspace store configured with postgres")
	return adoptionpostgres.NewWorkspaceStore(db), cleanup
}
