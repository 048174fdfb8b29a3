// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-tier shape:
//
//	Handler (HTTP)     → parses requests, writes responses
//	Service (business) → validates, enforces rules, orchestrates
//	Repository (data)  → reads/writes the database
//
// Services take repository interfaces, not concrete sqlite types, so tests
// substitute in-memory mocks (see mocks_test.go).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

// Validation constants.
const (
	MaxHandleLength      = 20
	MaxDisplayNameLength = 100
	MaxBioLength         = 1000
	DefaultListLimit     = 20
	MaxListLimit         = 100

	// maxHandleProbes bounds the suffix search. Hitting it means thousands
	// of colliding handles share one base, which indicates a bug or abuse,
	// not a legitimate signup.
	maxHandleProbes = 1000

	// DefaultDisplayName is used when the identity provider supplies no name.
	DefaultDisplayName = "User"
)

// ProfileService handles profile provisioning, handle resolution, and
// profile reads/updates.
type ProfileService struct {
	profiles repository.ProfileRepository
	prefs    repository.PreferencesRepository
	logger   *slog.Logger
}

func NewProfileService(
	profiles repository.ProfileRepository,
	prefs repository.PreferencesRepository,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		prefs:    prefs,
		logger:   logger,
	}
}

// normalizeHandle lowercases, strips non-alphanumerics, and truncates the
// desired handle. Returns "" when nothing usable remains.
func normalizeHandle(desired string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(desired) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	handle := b.String()
	if len(handle) > MaxHandleLength {
		handle = handle[:MaxHandleLength]
	}
	return handle
}

// ResolveHandle turns a desired handle into a unique one.
//
// The desired string is normalized (lowercase, alphanumerics only, at most
// MaxHandleLength chars, falling back to "user" when nothing remains), then
// probed against existing profiles:
//
//   - no row with that handle → it's free, return it
//   - the row belongs to ownerID → return it unchanged, so re-provisioning
//     the same identity is idempotent
//   - the row belongs to someone else → append an incrementing integer
//     suffix (handle1, handle2, …) and re-probe
//
// Suffixed candidates stay within MaxHandleLength by trimming the base.
//
// A probe that fails for any reason other than "no row" aborts resolution.
// Treating a failed probe as "handle is free" would hand out duplicates
// whenever the store hiccups, so the error always propagates. This is a
// best-effort pre-check either way: the UNIQUE constraint on
// profiles.username is the authoritative guard, and a write-time conflict
// is retried by the caller with the next suffix.
func (s *ProfileService) ResolveHandle(ctx context.Context, desired, ownerID string) (string, error) {
	base := normalizeHandle(desired)
	if base == "" {
		base = "user"
	}

	candidate := base
	for n := 1; n <= maxHandleProbes; n++ {
		existing, err := s.profiles.GetByUsername(ctx, candidate)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return candidate, nil
			}
			return "", fmt.Errorf("probing handle %q: %w", candidate, err)
		}
		if existing.ID == ownerID {
			return candidate, nil
		}

		suffix := strconv.Itoa(n)
		room := MaxHandleLength - len(suffix)
		if room > len(base) {
			room = len(base)
		}
		candidate = base[:room] + suffix
	}

	return "", fmt.Errorf("no free handle found for base %q after %d probes", base, maxHandleProbes)
}

// Provision ensures an application profile exists for an authenticated
// identity. Called on every successful sign-in, so it must be idempotent:
// first sign-in inserts the profile, later ones refresh display fields and
// keep the existing username.
//
// After the upsert the profile is re-read to confirm persistence before
// success is declared. Finally a default preferences row is seeded —
// best-effort: a seeding failure is logged and swallowed, since the profile
// itself is the only required outcome.
func (s *ProfileService) Provision(ctx context.Context, identity *model.Identity) (*model.Profile, error) {
	if identity == nil || identity.ID == "" {
		return nil, apperror.Unauthenticated("identity is required for provisioning")
	}

	existing, err := s.profiles.GetByID(ctx, identity.ID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking existing profile %s: %w", identity.ID, err)
	}

	if existing != nil {
		// Re-provisioning: keep the handle and anything the user edited,
		// refresh only the fields the provider actually supplied.
		if name := strings.TrimSpace(identity.FullName); name != "" {
			existing.DisplayName = name
		}
		if identity.Email != "" {
			existing.Email = identity.Email
		}
		if identity.AvatarURL != "" {
			existing.AvatarURL = identity.AvatarURL
		}
		if err := s.profiles.Upsert(ctx, existing); err != nil {
			return nil, fmt.Errorf("refreshing profile %s: %w", identity.ID, err)
		}
	} else {
		if err := s.createProfile(ctx, identity); err != nil {
			return nil, err
		}
	}

	// Confirm persistence with a read-back rather than trusting the write.
	persisted, err := s.profiles.GetByID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("confirming profile %s after upsert: %w", identity.ID, err)
	}

	if err := s.prefs.Upsert(ctx, model.DefaultPreferences(identity.ID)); err != nil {
		s.logger.Warn("seeding default preferences failed",
			slog.String("userID", identity.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("profile provisioned",
		slog.String("userID", persisted.ID),
		slog.String("username", persisted.Username),
	)

	return persisted, nil
}

// createProfile inserts a fresh profile for a first sign-in, resolving a
// unique handle and retrying on a write-time username conflict: a racing
// signup may grab the candidate between our probe and our insert, in which
// case the next resolve sees the new row and moves to the next suffix.
func (s *ProfileService) createProfile(ctx context.Context, identity *model.Identity) error {
	displayName := strings.TrimSpace(identity.FullName)
	if displayName == "" {
		displayName = DefaultDisplayName
	}

	desired := identity.FullName
	if desired == "" {
		// Fall back to the email local part: "ana@example.com" → "ana".
		desired, _, _ = strings.Cut(identity.Email, "@")
	}

	profile := &model.Profile{
		ID:          identity.ID,
		DisplayName: displayName,
		Email:       identity.Email,
		AvatarURL:   identity.AvatarURL,
	}

	const maxUpsertAttempts = 3
	var lastErr error
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		username, err := s.ResolveHandle(ctx, desired, identity.ID)
		if err != nil {
			return fmt.Errorf("resolving handle: %w", err)
		}
		profile.Username = username

		lastErr = s.profiles.Upsert(ctx, profile)
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, apperror.ErrConflict) {
			return fmt.Errorf("inserting profile %s: %w", identity.ID, lastErr)
		}
	}
	return fmt.Errorf("inserting profile %s: %w", identity.ID, lastErr)
}

// GetByID returns the profile for an identity ID.
func (s *ProfileService) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "profile ID is required")
	}
	return s.profiles.GetByID(ctx, id)
}

// GetByUsername returns the profile behind a public handle.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	return s.profiles.GetByUsername(ctx, username)
}

// SearchBands returns band profiles matching the query.
func (s *ProfileService) SearchBands(ctx context.Context, query string, limit int) ([]model.Profile, error) {
	limit = clampLimit(limit)
	return s.profiles.SearchBands(ctx, strings.TrimSpace(query), limit)
}

// UpdateSettings applies owner-editable profile changes. actorID must match
// the profile being edited.
func (s *ProfileService) UpdateSettings(ctx context.Context, actorID string, updated *model.Profile) (*model.Profile, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required to update settings")
	}
	if updated == nil || updated.ID == "" {
		return nil, apperror.ValidationFailed("id", "profile ID is required")
	}
	if updated.ID != actorID {
		return nil, apperror.Forbidden("cannot edit another user's profile")
	}

	current, err := s.profiles.GetByID(ctx, updated.ID)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(updated.DisplayName)
	if displayName == "" {
		return nil, apperror.ValidationFailed("displayName", "display name is required")
	}
	if len(displayName) > MaxDisplayNameLength {
		return nil, apperror.ValidationFailed("displayName",
			fmt.Sprintf("display name must be %d characters or less", MaxDisplayNameLength))
	}
	if len(updated.Bio) > MaxBioLength {
		return nil, apperror.ValidationFailed("bio",
			fmt.Sprintf("bio must be %d characters or less", MaxBioLength))
	}

	current.DisplayName = displayName
	current.Bio = updated.Bio
	current.AvatarURL = updated.AvatarURL
	current.WebsiteURL = updated.WebsiteURL
	current.SpotifyURL = updated.SpotifyURL
	current.YouTubeURL = updated.YouTubeURL
	current.InstagramURL = updated.InstagramURL
	current.Location = updated.Location
	current.Genres = updated.Genres
	current.IsBand = updated.IsBand

	if err := s.profiles.UpdateSettings(ctx, current); err != nil {
		s.logger.Error("failed to update profile settings",
			slog.String("userID", actorID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.logger.Info("profile settings updated", slog.String("userID", actorID))
	return current, nil
}

// GetPreferences returns the preferences row for a user, falling back to
// defaults when none was ever seeded.
func (s *ProfileService) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated("login required")
	}
	prefs, err := s.prefs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return model.DefaultPreferences(userID), nil
		}
		return nil, err
	}
	return prefs, nil
}

// UpdatePreferences persists a user's notification and privacy settings.
func (s *ProfileService) UpdatePreferences(ctx context.Context, userID string, prefs *model.Preferences) (*model.Preferences, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated("login required")
	}
	if prefs == nil {
		return nil, apperror.ValidationFailed("preferences", "preferences body is required")
	}
	if prefs.PrivacyLevel != "public" && prefs.PrivacyLevel != "private" {
		return nil, apperror.ValidationFailed("privacyLevel", `privacy level must be "public" or "private"`)
	}

	prefs.UserID = userID
	if err := s.prefs.Upsert(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// clampLimit keeps list limits in a sane range.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
