package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
)

func TestResolveHandle_Normalization(t *testing.T) {
	svc, _, _ := newTestProfileService(t)

	tests := []struct {
		desired string
		want    string
	}{
		{"Ana Silva", "anasilva"},
		{"DJ_K!LLER-99", "djkller99"},
		{"ALLCAPS", "allcaps"},
		{"!!!", "user"},     // nothing usable left
		{"", "user"},        // empty input
		{"ümläut", "mlut"},  // non-ASCII stripped
		{strings.Repeat("x", 30), strings.Repeat("x", 20)}, // truncated
	}

	for _, tt := range tests {
		got, err := svc.ResolveHandle(context.Background(), tt.desired, "owner-1")
		if err != nil {
			t.Fatalf("ResolveHandle(%q) error = %v", tt.desired, err)
		}
		if got != tt.want {
			t.Errorf("ResolveHandle(%q) = %q, want %q", tt.desired, got, tt.want)
		}
	}
}

func TestResolveHandle_SuffixOnCollision(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	profiles.profiles["other-1"] = &model.Profile{ID: "other-1", Username: "ana"}

	got, err := svc.ResolveHandle(context.Background(), "Ana", "owner-1")
	if err != nil {
		t.Fatalf("ResolveHandle() error = %v", err)
	}
	if got != "ana1" {
		t.Errorf("ResolveHandle() = %q, want %q", got, "ana1")
	}
}

func TestResolveHandle_IdempotentForOwner(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	profiles.profiles["owner-1"] = &model.Profile{ID: "owner-1", Username: "ana"}

	got, err := svc.ResolveHandle(context.Background(), "Ana", "owner-1")
	if err != nil {
		t.Fatalf("ResolveHandle() error = %v", err)
	}
	if got != "ana" {
		t.Errorf("ResolveHandle() = %q, want existing handle %q", got, "ana")
	}
}

func TestResolveHandle_SuffixStaysWithinCap(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	long := strings.Repeat("x", 20)
	profiles.profiles["other-1"] = &model.Profile{ID: "other-1", Username: long}

	got, err := svc.ResolveHandle(context.Background(), long, "owner-1")
	if err != nil {
		t.Fatalf("ResolveHandle() error = %v", err)
	}
	if len(got) > MaxHandleLength {
		t.Errorf("resolved handle %q is %d chars, cap is %d", got, len(got), MaxHandleLength)
	}
	if got != strings.Repeat("x", 19)+"1" {
		t.Errorf("ResolveHandle() = %q, want trimmed base plus suffix", got)
	}
}

// A probe that fails for any reason other than "no row" must abort
// resolution. Treating the failure as "handle is free" would hand out
// duplicate handles during a store outage.
func TestResolveHandle_ProbeFailureAborts(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	profiles.probeErr = apperror.Unavailable("probe", errors.New("connection refused"))

	_, err := svc.ResolveHandle(context.Background(), "ana", "owner-1")
	if err == nil {
		t.Fatal("ResolveHandle() should abort when the probe fails")
	}
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

// N signups wanting the same base handle must end up with N distinct
// handles.
func TestProvision_HandleUniquenessUnderCollisions(t *testing.T) {
	svc, _, _ := newTestProfileService(t)

	const n = 10
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		identity := &model.Identity{
			ID:       "id-" + strings.Repeat("x", i+1),
			Email:    "ana@example.com",
			FullName: "Ana Silva",
		}
		p, err := svc.Provision(context.Background(), identity)
		if err != nil {
			t.Fatalf("Provision() #%d error = %v", i, err)
		}
		if seen[p.Username] {
			t.Fatalf("duplicate handle %q on signup #%d", p.Username, i)
		}
		seen[p.Username] = true
	}
}

func TestProvision_Idempotent(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	identity := &model.Identity{ID: "user-1", Email: "ana@example.com", FullName: "Ana Silva"}

	first, err := svc.Provision(context.Background(), identity)
	if err != nil {
		t.Fatalf("first Provision() error = %v", err)
	}
	second, err := svc.Provision(context.Background(), identity)
	if err != nil {
		t.Fatalf("second Provision() error = %v", err)
	}

	if first.ID != second.ID || first.Username != second.Username {
		t.Errorf("re-provisioning changed identity: first = (%s, %s), second = (%s, %s)",
			first.ID, first.Username, second.ID, second.Username)
	}
	if len(profiles.profiles) != 1 {
		t.Errorf("profile count = %d, want 1", len(profiles.profiles))
	}
}

func TestProvision_DisplayNameFallback(t *testing.T) {
	svc, _, _ := newTestProfileService(t)

	p, err := svc.Provision(context.Background(), &model.Identity{ID: "user-1", Email: "x@example.com"})
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if p.DisplayName != DefaultDisplayName {
		t.Errorf("DisplayName = %q, want fallback %q", p.DisplayName, DefaultDisplayName)
	}
	// Handle derives from the email local part when no name is supplied.
	if p.Username != "x" {
		t.Errorf("Username = %q, want %q", p.Username, "x")
	}
}

func TestProvision_RefreshKeepsUserEdits(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	identity := &model.Identity{ID: "user-1", Email: "ana@example.com", FullName: "Ana Silva"}
	if _, err := svc.Provision(context.Background(), identity); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	// User edits their display name in settings.
	profiles.profiles["user-1"].DisplayName = "Ana S. (official)"

	// A later password login carries no provider metadata; the edit must
	// survive.
	p, err := svc.Provision(context.Background(), &model.Identity{ID: "user-1", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("re-Provision() error = %v", err)
	}
	if p.DisplayName != "Ana S. (official)" {
		t.Errorf("DisplayName = %q, want user edit preserved", p.DisplayName)
	}
}

// A store outage during the handle probe must abort provisioning with no
// profile row written.
func TestProvision_StoreOutageCreatesNothing(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	profiles.probeErr = apperror.Unavailable("probe", errors.New("store down"))

	_, err := svc.Provision(context.Background(), &model.Identity{ID: "user-1", FullName: "Ana"})
	if err == nil {
		t.Fatal("Provision() should fail when the store is unavailable")
	}
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if len(profiles.profiles) != 0 {
		t.Errorf("profile count = %d, want 0 after aborted provisioning", len(profiles.profiles))
	}
}

// A write-time username conflict (a racing signup grabbed the candidate
// between probe and insert) is retried with the next suffix.
func TestProvision_RetriesOnWriteConflict(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	profiles.upsertErr = apperror.Conflict("profile", "ana")
	profiles.upsertErrOnce = true

	p, err := svc.Provision(context.Background(), &model.Identity{ID: "user-1", FullName: "Ana"})
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if p.ID != "user-1" {
		t.Errorf("ID = %q, want user-1", p.ID)
	}
	if profiles.upsertCalls < 2 {
		t.Errorf("upsert calls = %d, want a retry after the conflict", profiles.upsertCalls)
	}
}

// Preference seeding is best-effort: a failure there is logged and
// swallowed, never surfaced to the caller.
func TestProvision_PreferenceSeedFailureIsSwallowed(t *testing.T) {
	svc, _, prefs := newTestProfileService(t)

	prefs.upsertErr = apperror.Unavailable("preferences upsert", errors.New("table locked"))

	p, err := svc.Provision(context.Background(), &model.Identity{ID: "user-1", FullName: "Ana"})
	if err != nil {
		t.Fatalf("Provision() should swallow preference-seed failures, got %v", err)
	}
	if p.Username == "" {
		t.Error("profile should still be fully provisioned")
	}
}

func TestProvision_SeedsDefaultPreferences(t *testing.T) {
	svc, _, prefs := newTestProfileService(t)

	if _, err := svc.Provision(context.Background(), &model.Identity{ID: "user-1", FullName: "Ana"}); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	seeded, ok := prefs.prefs["user-1"]
	if !ok {
		t.Fatal("expected a preferences row to be seeded")
	}
	if !seeded.EmailNotifications || seeded.PrivacyLevel != "public" {
		t.Errorf("seeded preferences = %+v, want defaults", seeded)
	}
}

func TestProvision_MissingIdentity(t *testing.T) {
	svc, _, _ := newTestProfileService(t)

	for _, identity := range []*model.Identity{nil, {ID: ""}} {
		_, err := svc.Provision(context.Background(), identity)
		if !errors.Is(err, apperror.ErrUnauthenticated) {
			t.Errorf("Provision(%+v) error = %v, want ErrUnauthenticated", identity, err)
		}
	}
}

func TestUpdateSettings_OwnerOnly(t *testing.T) {
	svc, profiles, _ := newTestProfileService(t)

	profiles.profiles["user-1"] = &model.Profile{ID: "user-1", Username: "ana", DisplayName: "Ana"}

	_, err := svc.UpdateSettings(context.Background(), "user-2", &model.Profile{ID: "user-1", DisplayName: "Hacked"})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}

	updated, err := svc.UpdateSettings(context.Background(), "user-1", &model.Profile{
		ID:          "user-1",
		DisplayName: "Ana Oficial",
		Bio:         "Fado singer",
		IsBand:      false,
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if updated.DisplayName != "Ana Oficial" || updated.Bio != "Fado singer" {
		t.Errorf("settings not applied: %+v", updated)
	}
	if updated.Username != "ana" {
		t.Errorf("Username = %q, settings update must not change the handle", updated.Username)
	}
}

func TestGetPreferences_DefaultsWhenUnseeded(t *testing.T) {
	svc, _, _ := newTestProfileService(t)

	p, err := svc.GetPreferences(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetPreferences() error = %v", err)
	}
	if p.PrivacyLevel != "public" {
		t.Errorf("PrivacyLevel = %q, want default %q", p.PrivacyLevel, "public")
	}
}
