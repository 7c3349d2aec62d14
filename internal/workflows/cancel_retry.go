package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the queue the reconciler worker listens on.
const TaskQueue = "reservation-cleanup-queue"

// CancelRetryInput is the input for the cancel-retry workflow.
type CancelRetryInput struct {
	SessionID string
	MarkerID  int64
}

// CancelRetryWorkflow keeps retrying a failed reservation cancellation against
// the backend. The trip itself already ended on the device; this only clears
// the stale reservation server-side. The outcome is journaled either way.
func CancelRetryWorkflow(ctx workflow.Context, input CancelRetryInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting cancel-retry workflow", "sessionID", input.SessionID, "markerID", input.MarkerID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Minute,
			MaximumAttempts:    10,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	err := workflow.ExecuteActivity(ctx, "CancelReservation", input.MarkerID).Get(ctx, nil)
	if err != nil {
		logger.Error("cancel still failing after retries", "markerID", input.MarkerID, "error", err)
		_ = workflow.ExecuteActivity(ctx, "RecordOutcome", input.SessionID, input.MarkerID, false).Get(ctx, nil)
		return err
	}

	_ = workflow.ExecuteActivity(ctx, "RecordOutcome", input.SessionID, input.MarkerID, true).Get(ctx, nil)
	logger.Info("Reservation cancelled", "markerID", input.MarkerID)
	return nil
}
