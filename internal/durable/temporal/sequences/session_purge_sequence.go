package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	sessionactivities "github.com/Apurer/go-gin-dog-adoption/internal/durable/temporal/activities/sessions"
)

// PurgeAttempts bounds retries of one purge run. The next scheduled run picks up whatever
// this one could not delete.
const PurgeAttempts = 3

func purgeActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        15 * time.Second,
			MaximumAttempts:        PurgeAttempts,
			NonRetryableErrorTypes: []string{sessionactivities.ErrTypeNotConfigured},
		},
	}
}

// RunSessionPurgeSequence deletes expired workspace snapshots through the purge activity.
func RunSessionPurgeSequence(ctx workflow.Context) (*sessionactivities.PurgeResult, error) {
	ctx = workflow.WithActivityOptions(ctx, purgeActivityOptions())
	var result sessionactivities.PurgeResult
	if err := workflow.ExecuteActivity(ctx, sessionactivities.PurgeExpiredActivityName).Get(ctx, &result); err != nil {
		return nil, err
	}
	workflow.GetLogger(ctx).Debug("expired snapshots deleted", "purged", result.Purged, "at", result.At)
	return &result, nil
}
