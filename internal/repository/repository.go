// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation; tests
// substitute in-memory mocks.
//
// ERROR CONTRACT (shared by every implementation):
//   - "no matching row"       → error wrapping apperror.ErrNotFound
//   - uniqueness violation    → error wrapping apperror.ErrConflict
//   - any other store failure → error wrapping apperror.ErrUnavailable
//
// The three-way split is load-bearing: the handle resolver and the toggle
// reconciler branch on ErrNotFound, the toggle add path recovers from
// ErrConflict, and ErrUnavailable always aborts the operation.
package repository

import (
	"context"
	"time"

	"github.com/genorama/genorama/internal/model"
)

// ReleaseSort selects the ordering for release listings.
type ReleaseSort string

const (
	SortByVotes  ReleaseSort = "votes"  // vote_count descending
	SortByRecent ReleaseSort = "recent" // created_at descending
)

// ReleaseListOptions controls release listing queries.
// ViewerID, when non-empty, marks each returned release with whether that
// user has voted for it.
type ReleaseListOptions struct {
	Limit    int
	SortBy   ReleaseSort
	ViewerID string
}

// EventListOptions controls event listing queries.
type EventListOptions struct {
	Limit    int
	City     string // case-insensitive substring match, empty = all cities
	Upcoming bool   // only events whose date is in the future
	ViewerID string // marks ViewerAttending when non-empty
}

type ProfileRepository interface {
	// Upsert inserts or updates a profile keyed on its ID (the identity ID).
	// An existing row keeps its username; display fields are refreshed.
	Upsert(ctx context.Context, profile *model.Profile) error
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
	// SearchBands returns band profiles whose username or display name
	// contains the query, case-insensitively. Empty query lists all bands.
	SearchBands(ctx context.Context, query string, limit int) ([]model.Profile, error)
	// UpdateSettings persists the owner-editable fields of a profile.
	UpdateSettings(ctx context.Context, profile *model.Profile) error
}

type CredentialRepository interface {
	Create(ctx context.Context, cred *model.Credential) error
	GetByEmail(ctx context.Context, email string) (*model.Credential, error)
}

type PreferencesRepository interface {
	Upsert(ctx context.Context, prefs *model.Preferences) error
	GetByUserID(ctx context.Context, userID string) (*model.Preferences, error)
}

type ReleaseRepository interface {
	Create(ctx context.Context, release *model.Release) error
	GetByID(ctx context.Context, id string) (*model.Release, error)
	List(ctx context.Context, opts ReleaseListOptions) ([]model.Release, error)
	ListByArtist(ctx context.Context, artistID string, limit int) ([]model.Release, error)
}

// ToggleRepository is the storage contract for a toggle join table — votes
// on releases, attendance on events. One implementation per table, all with
// identical semantics: at most one row per (actor, target), enforced by a
// UNIQUE constraint that Insert surfaces as ErrConflict.
type ToggleRepository interface {
	// Find returns the row for (actor, target), or ErrNotFound.
	Find(ctx context.Context, actorID, targetID string) (*model.ToggleRelation, error)
	// Insert creates the row, filling in its ID and CreatedAt.
	// Returns ErrConflict when the pair already exists.
	Insert(ctx context.Context, rel *model.ToggleRelation) error
	// Delete removes a row by its ID. Returns ErrNotFound when the row is
	// already gone — the reconciler treats that as a no-op, not a failure.
	Delete(ctx context.Context, id string) error
}

type DonationRepository interface {
	// Create appends a donation row. Donations are never updated or deleted.
	Create(ctx context.Context, donation *model.Donation) error
	// ListByRecipient returns completed donations for a recipient, newest
	// first, with donor profiles joined for non-anonymous rows.
	ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.Donation, error)
	StatsByRecipient(ctx context.Context, recipientID string) (*model.DonationStats, error)
}

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context, opts EventListOptions) ([]model.Event, error)
	Attendees(ctx context.Context, eventID string, limit int) ([]model.EventAttendee, error)
}

type ForumRepository interface {
	Categories(ctx context.Context) ([]model.ForumCategory, error)
	GetCategory(ctx context.Context, id string) (*model.ForumCategory, error)
	CreatePost(ctx context.Context, post *model.ForumPost) error
	GetPost(ctx context.Context, id string) (*model.ForumPost, error)
	// ListPosts returns posts (optionally filtered by category), pinned
	// first, then by most recent reply.
	ListPosts(ctx context.Context, categoryID string, limit int) ([]model.ForumPost, error)
	CreateReply(ctx context.Context, reply *model.ForumReply) error
	ListReplies(ctx context.Context, postID string, limit int) ([]model.ForumReply, error)
	// BumpPostActivity increments the post's reply count and records the
	// reply time. Display-only bookkeeping; callers may ignore its error.
	BumpPostActivity(ctx context.Context, postID string, at time.Time) error
}
