package temporaladapter

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/sdk/client"

	"github.com/anderlopz/parkpass/internal/workflows"
)

// Enqueuer hands failed reservation cancellations to the reconciler worker so
// they are retried out-of-band. Implements usecases.CancelRetryEnqueuer.
type Enqueuer struct {
	client client.Client
}

// NewEnqueuer dials the Temporal frontend.
func NewEnqueuer(hostPort string) (*Enqueuer, error) {
	c, err := client.Dial(client.Options{HostPort: hostPort})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return &Enqueuer{client: c}, nil
}

// EnqueueCancelRetry starts a cancel-retry workflow. The workflow ID is derived
// from the session so a double release does not start a second retry loop.
func (e *Enqueuer) EnqueueCancelRetry(ctx context.Context, sessionID string, markerID int64) error {
	opts := client.StartWorkflowOptions{
		ID:        "cancel-retry-" + sessionID,
		TaskQueue: workflows.TaskQueue,
	}
	input := workflows.CancelRetryInput{SessionID: sessionID, MarkerID: markerID}
	if _, err := e.client.ExecuteWorkflow(ctx, opts, workflows.CancelRetryWorkflow, input); err != nil {
		return fmt.Errorf("start cancel-retry workflow: %w", err)
	}
	return nil
}

// Close releases the Temporal client.
func (e *Enqueuer) Close() {
	e.client.Close()
}

// NoopEnqueuer is used when the reconciler is disabled; failed cancels are
// only logged.
type NoopEnqueuer struct{}

func (NoopEnqueuer) EnqueueCancelRetry(_ context.Context, sessionID string, markerID int64) error {
	slog.Warn("cancel retry dropped, reconciler disabled", "sessionID", sessionID, "markerID", markerID)
	return nil
}
