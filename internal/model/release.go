package model

import "time"

// Release represents a music release (single, EP, album) listed on the site.
//
// VoteCount is a denormalized cache of count(votes) for this release. It is
// maintained by database triggers on the votes table, not by application
// code, and is advisory: listings sort by it, but the votes join table is
// the authoritative record of who voted. Immediately after a toggle the
// column may lag the row set; callers must not rely on exact equality.
type Release struct {
	ID            string    `json:"id"            db:"id"`
	Title         string    `json:"title"         db:"title"`
	Description   string    `json:"description"   db:"description"`
	ArtistID      string    `json:"artistId"      db:"artist_id"`
	CoverImageURL string    `json:"coverImageUrl" db:"cover_image_url"`
	YouTubeURL    string    `json:"youtubeUrl"    db:"youtube_url"`
	SpotifyURL    string    `json:"spotifyUrl"    db:"spotify_url"`
	SoundCloudURL string    `json:"soundcloudUrl" db:"soundcloud_url"`
	ReleaseDate   string    `json:"releaseDate"   db:"release_date"` // YYYY-MM-DD, optional
	Genres        []string  `json:"genres"        db:"genres"`
	VoteCount     int       `json:"voteCount"     db:"vote_count"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`

	// Artist is the joined profile summary of the release owner.
	// Populated by list/get queries, nil otherwise.
	Artist *ProfileSummary `json:"artist,omitempty"`

	// ViewerVoted reports whether the requesting user has voted for this
	// release. Only meaningful on queries made on behalf of a logged-in
	// viewer; false for anonymous requests.
	ViewerVoted bool `json:"viewerVoted"`
}

// ProfileSummary is the subset of Profile embedded in joined query results
// (release artist, event organizer, forum author, donation donor).
type ProfileSummary struct {
	ID          string `json:"id"          db:"id"`
	Username    string `json:"username"    db:"username"`
	DisplayName string `json:"displayName" db:"display_name"`
	AvatarURL   string `json:"avatarUrl"   db:"avatar_url"`
}
