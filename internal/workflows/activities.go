package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/ports"
)

// CancelRetryActivities holds the activity implementations for the
// cancel-retry workflow.
type CancelRetryActivities struct {
	API     ports.ParkingAPI
	Journal ports.TripJournal
}

// CancelReservation releases a scan marker reservation on the backend.
func (a *CancelRetryActivities) CancelReservation(ctx context.Context, markerID int64) error {
	if err := a.API.CancelReservation(ctx, markerID); err != nil {
		return fmt.Errorf("cancel reservation %d: %w", markerID, err)
	}
	return nil
}

// RecordOutcome appends the final result of the retry loop to the trip journal.
func (a *CancelRetryActivities) RecordOutcome(ctx context.Context, sessionID string, markerID int64, ok bool) error {
	if a.Journal == nil {
		return nil
	}
	ev := &domain.SessionEvent{
		Type:      domain.EventCancelFailed,
		SessionID: sessionID,
		Marker:    &domain.Marker{ID: markerID, Kind: domain.KindScanMarker},
		Time:      time.Now(),
	}
	if ok {
		ev.Type = domain.EventTransition
		ev.To = domain.StatusReleased
	}
	return a.Journal.RecordEvent(ctx, ev)
}
