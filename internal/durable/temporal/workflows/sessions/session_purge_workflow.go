package sessions

import (
	"go.temporal.io/sdk/workflow"

	sessionactivities "github.com/Apurer/go-gin-dog-adoption/internal/durable/temporal/activities/sessions"
	"github.com/Apurer/go-gin-dog-adoption/internal/durable/temporal/sequences"
)

const (
	// SessionPurgeWorkflowName is the public identifier for registering the workflow.
	SessionPurgeWorkflowName = "sessions.workflows.Purge"
	// SessionPurgeTaskQueue is the queue consumed by the worker processing session housekeeping.
	SessionPurgeTaskQueue = "SESSION_PURGE"
)

// SessionPurgeWorkflowInput carries the trace of whoever started the run.
type SessionPurgeWorkflowInput struct {
	TraceID string
}

// SessionPurgeWorkflow removes expired workspace snapshots.
func SessionPurgeWorkflow(ctx workflow.Context, input SessionPurgeWorkflowInput) (*sessionactivities.PurgeResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("SessionPurgeWorkflow started", withTraceID(input.TraceID)...)
	result, err := sequences.RunSessionPurgeSequence(ctx)
	if err != nil {
		logger.Error("SessionPurgeWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("SessionPurgeWorkflow completed", withTraceID(input.TraceID, "purged", result.Purged)...)
	return result, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
