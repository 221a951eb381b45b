package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
	sessionactivities "github.com/Apurer/go-gin-dog-adoption/internal/durable/temporal/activities/sessions"
	sessionworkflows "github.com/Apurer/go-gin-dog-adoption/internal/durable/temporal/workflows/sessions"
)

var (
	_ ports.SessionPurger = (*TemporalSessionPurge)(nil)
	_ ports.SessionPurger = (*InlineSessionPurge)(nil)
)

// CronWorkflowID is the fixed id of the scheduled purge, so only one schedule exists per namespace.
const CronWorkflowID = "session-purge-cron"

// TemporalSessionPurge runs the purge workflow on a Temporal cluster.
type TemporalSessionPurge struct {
	client    client.Client
	taskQueue string
}

// NewTemporalSessionPurge wires a Temporal client into the purger.
func NewTemporalSessionPurge(c client.Client) *TemporalSessionPurge {
	return &TemporalSessionPurge{client: c, taskQueue: sessionworkflows.SessionPurgeTaskQueue}
}

// PurgeExpired starts one purge run and waits for its result.
func (o *TemporalSessionPurge) PurgeExpired(ctx context.Context) (int64, error) {
	if o == nil || o.client == nil {
		return 0, errors.New("temporal session purge not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	run, err := o.client.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{
			ID:        fmt.Sprintf("session-purge-%s", traceComponent),
			TaskQueue: o.taskQueue,
		},
		sessionworkflows.SessionPurgeWorkflow,
		sessionworkflows.SessionPurgeWorkflowInput{TraceID: traceComponent},
	)
	if err != nil {
		return 0, err
	}
	var result sessionactivities.PurgeResult
	if err := run.Get(ctx, &result); err != nil {
		return 0, err
	}
	return result.Purged, nil
}

// Schedule registers a cron workflow that purges every interval. An existing schedule is kept.
func (o *TemporalSessionPurge) Schedule(ctx context.Context, interval time.Duration) error {
	if o == nil || o.client == nil {
		return errors.New("temporal session purge not configured")
	}
	interval = interval.Truncate(time.Minute)
	if interval < time.Minute {
		interval = time.Minute
	}
	_, err := o.client.ExecuteWorkflow(ctx,
		client.StartWorkflowOptions{
			ID:           CronWorkflowID,
			TaskQueue:    o.taskQueue,
			CronSchedule: "@every " + interval.String(),
		},
		sessionworkflows.SessionPurgeWorkflow,
		sessionworkflows.SessionPurgeWorkflowInput{},
	)
	var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &alreadyStarted) {
		return nil
	}
	return err
}

// InlineSessionPurge purges the store directly without Temporal, for tests and dev fallbacks.
type InlineSessionPurge struct {
	store ports.WorkspaceStore
	now   func() time.Time
}

func NewInlineSessionPurge(store ports.WorkspaceStore) *InlineSessionPurge {
	return &InlineSessionPurge{store: store, now: time.Now}
}

func (o *InlineSessionPurge) PurgeExpired(ctx context.Context) (int64, error) {
	if o == nil || o.store == nil {
		return 0, errors.New("inline session purge not configured")
	}
	return o.store.PurgeExpired(ctx, o.now().UTC())
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
