package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/anderlopz/parkpass/internal/core/domain"
	"github.com/anderlopz/parkpass/internal/core/usecases"
)

func TestLocationTracker_FixUpdatesCurrent(t *testing.T) {
	src := &mockLocationSource{}
	tracker := usecases.NewLocationTracker(src, nil)
	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer tracker.Stop()

	if tracker.Current() != nil {
		t.Fatal("expected no position before the first fix")
	}

	src.fix(48.137, 11.575)
	pos := tracker.Current()
	if pos == nil {
		t.Fatal("expected a position after a fix")
	}
	if pos.Lat != 48.137 || pos.Lon != 11.575 {
		t.Errorf("unexpected position: %+v", pos)
	}
	if pos.Seq != 1 {
		t.Errorf("expected seq 1, got %d", pos.Seq)
	}

	src.fix(48.138, 11.576)
	if got := tracker.Current().Seq; got != 2 {
		t.Errorf("expected seq 2 after second fix, got %d", got)
	}
}

func TestLocationTracker_ErrorClearsPosition(t *testing.T) {
	src := &mockLocationSource{}
	tracker := usecases.NewLocationTracker(src, nil)
	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer tracker.Stop()

	var got error
	tracker.SubscribeErrors(func(err error) { got = err })

	src.fix(48.137, 11.575)
	src.fail(errors.New("gps permission revoked"))

	if tracker.Current() != nil {
		t.Error("expected nil position after a location failure")
	}
	if !errors.Is(got, domain.ErrLocationUnavailable) {
		t.Errorf("expected ErrLocationUnavailable delivered to subscribers, got %v", got)
	}

	// A new fix recovers.
	src.fix(48.139, 11.577)
	if tracker.Current() == nil {
		t.Error("expected position after recovery fix")
	}
}

func TestLocationTracker_AcceptRejectsStaleSeq(t *testing.T) {
	src := &mockLocationSource{}
	tracker := usecases.NewLocationTracker(src, nil)
	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer tracker.Stop()

	src.fix(48.1, 11.5)
	first := tracker.Current().Seq
	src.fix(48.2, 11.6)

	if tracker.Accept(first) {
		t.Error("stale sequence must be rejected")
	}
	if !tracker.Accept(tracker.Current().Seq) {
		t.Error("current sequence must be accepted")
	}
}

func TestLocationTracker_SubscribersGetFixes(t *testing.T) {
	src := &mockLocationSource{}
	tracker := usecases.NewLocationTracker(src, nil)
	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer tracker.Stop()

	var seen []domain.Position
	tracker.Subscribe(func(p domain.Position) { seen = append(seen, p) })

	src.fix(48.1, 11.5)
	src.fix(48.2, 11.6)

	if len(seen) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(seen))
	}
	if seen[0].Seq >= seen[1].Seq {
		t.Error("sequence numbers must be monotonic")
	}
}

func TestLocationTracker_HeadingOptional(t *testing.T) {
	src := &mockLocationSource{}
	compass := &mockHeadingSource{}
	tracker := usecases.NewLocationTracker(src, compass)
	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer tracker.Stop()

	if tracker.Heading() != nil {
		t.Fatal("expected no heading before the compass reports")
	}
	compass.turn(182.5)
	h := tracker.Heading()
	if h == nil || *h != 182.5 {
		t.Errorf("expected heading 182.5, got %v", h)
	}
}
