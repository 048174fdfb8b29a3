package service

import (
	"context"
	"errors"
	"testing"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
)

func newTestToggleService(t *testing.T) (*ToggleService, *mockToggleRepo) {
	t.Helper()
	repo := newMockToggleRepo()
	return NewToggleService(repo, "vote", testLogger()), repo
}

// For a fresh pair, toggling must alternate: add, remove, add — state flips
// on every call and never drifts.
func TestToggle_Involution(t *testing.T) {
	svc, _ := newTestToggleService(t)
	ctx := context.Background()

	want := []model.ToggleResult{
		{Action: model.ToggleAdded, Delta: +1},
		{Action: model.ToggleRemoved, Delta: -1},
		{Action: model.ToggleAdded, Delta: +1},
		{Action: model.ToggleRemoved, Delta: -1},
	}
	for i, w := range want {
		got, err := svc.Toggle(ctx, "user-1", "release-1")
		if err != nil {
			t.Fatalf("Toggle() #%d error = %v", i, err)
		}
		if *got != w {
			t.Errorf("Toggle() #%d = %+v, want %+v", i, got, w)
		}
	}
}

func TestToggle_IndependentPairs(t *testing.T) {
	svc, repo := newTestToggleService(t)
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "user-1", "release-1"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if _, err := svc.Toggle(ctx, "user-2", "release-1"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if _, err := svc.Toggle(ctx, "user-1", "release-2"); err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}

	if len(repo.rows) != 3 {
		t.Errorf("row count = %d, want 3 independent relations", len(repo.rows))
	}
}

func TestToggle_Unauthenticated(t *testing.T) {
	svc, _ := newTestToggleService(t)

	_, err := svc.Toggle(context.Background(), "", "release-1")
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("error = %v, want ErrUnauthenticated", err)
	}
}

// An insert that loses to a concurrent insert hits the UNIQUE constraint.
// That is the double-click contract: report {added, 0}, not an error.
func TestToggle_ConcurrentAddCollapsesToZeroDelta(t *testing.T) {
	svc, repo := newTestToggleService(t)

	repo.insertErr = apperror.Conflict("toggle relation", "user-1/release-1")
	repo.insertErrOnce = true

	got, err := svc.Toggle(context.Background(), "user-1", "release-1")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if got.Action != model.ToggleAdded || got.Delta != 0 {
		t.Errorf("Toggle() = %+v, want {added, 0}", got)
	}
}

// A delete that loses to a concurrent delete finds the row already gone.
// Also a no-op: {removed, 0}.
func TestToggle_ConcurrentRemoveCollapsesToZeroDelta(t *testing.T) {
	svc, repo := newTestToggleService(t)
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "user-1", "release-1"); err != nil {
		t.Fatalf("setup Toggle() error = %v", err)
	}

	// Simulate the race: the row exists at Find time but is gone by Delete.
	repo.deleteErr = apperror.NotFound("toggle relation", "rel-1")

	got, err := svc.Toggle(ctx, "user-1", "release-1")
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if got.Action != model.ToggleRemoved || got.Delta != 0 {
		t.Errorf("Toggle() = %+v, want {removed, 0}", got)
	}
}

// A failed existence lookup must abort the toggle. Proceeding to the insert
// path after a failed lookup could double-add.
func TestToggle_LookupFailureAborts(t *testing.T) {
	svc, repo := newTestToggleService(t)

	repo.findErr = apperror.Unavailable("toggle lookup", errors.New("store down"))

	_, err := svc.Toggle(context.Background(), "user-1", "release-1")
	if err == nil {
		t.Fatal("Toggle() should abort when the lookup fails")
	}
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if len(repo.rows) != 0 {
		t.Errorf("row count = %d, want 0 after aborted toggle", len(repo.rows))
	}
}

// A non-conflict insert failure propagates instead of being misread as a
// race.
func TestToggle_InsertFailurePropagates(t *testing.T) {
	svc, repo := newTestToggleService(t)

	repo.insertErr = apperror.Unavailable("toggle insert", errors.New("disk full"))

	_, err := svc.Toggle(context.Background(), "user-1", "release-1")
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestToggle_MissingTarget(t *testing.T) {
	svc, _ := newTestToggleService(t)

	_, err := svc.Toggle(context.Background(), "user-1", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}
