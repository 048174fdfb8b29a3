// Package model defines the data structures used throughout the application.
package model

import "time"

// Profile represents an application-level profile for an authenticated
// identity — either a person or a band, distinguished by IsBand.
//
// The identity itself (OAuth subject or local email credential) is owned by
// the auth layer; Profile is keyed 1:1 to it via ID. Username is globally
// unique across the whole profile namespace: the handle resolver does a
// best-effort pre-check, and the UNIQUE constraint on profiles.username in
// the database is the authoritative backstop.
//
// WHY Email string (not *string)?
// Google OAuth can withhold the email if the user hides it. We use an empty
// string as the zero value rather than a nullable pointer — simpler to work
// with and safe to display.
type Profile struct {
	ID           string    `json:"id"           db:"id"`
	Username     string    `json:"username"     db:"username"`
	DisplayName  string    `json:"displayName"  db:"display_name"`
	Email        string    `json:"email"        db:"email"`
	Bio          string    `json:"bio"          db:"bio"`
	AvatarURL    string    `json:"avatarUrl"    db:"avatar_url"`
	WebsiteURL   string    `json:"websiteUrl"   db:"website_url"`
	SpotifyURL   string    `json:"spotifyUrl"   db:"spotify_url"`
	YouTubeURL   string    `json:"youtubeUrl"   db:"youtube_url"`
	InstagramURL string    `json:"instagramUrl" db:"instagram_url"`
	Location     string    `json:"location"     db:"location"`
	Genres       []string  `json:"genres"       db:"genres"`
	IsBand       bool      `json:"isBand"       db:"is_band"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// Identity is the authenticated principal handed to profile provisioning.
// It carries whatever the identity provider supplied: for Google OAuth the
// subject ID plus profile metadata, for local email/password signups the
// generated account ID and the chosen name.
type Identity struct {
	ID        string // stable identity ID (OAuth subject or local account ID)
	Email     string
	FullName  string // display name from provider metadata; may be empty
	AvatarURL string
	CreatedAt time.Time
}

// Preferences holds per-user notification and privacy settings.
// Seeded with defaults at provisioning time; seeding is best-effort and a
// failure never blocks the profile itself from being created.
type Preferences struct {
	UserID             string    `json:"userId"             db:"user_id"`
	EmailNotifications bool      `json:"emailNotifications" db:"email_notifications"`
	PushNotifications  bool      `json:"pushNotifications"  db:"push_notifications"`
	PrivacyLevel       string    `json:"privacyLevel"       db:"privacy_level"` // "public" | "private"
	CreatedAt          time.Time `json:"createdAt"          db:"created_at"`
	UpdatedAt          time.Time `json:"updatedAt"          db:"updated_at"`
}

// DefaultPreferences returns the preference row seeded for a new identity.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:             userID,
		EmailNotifications: true,
		PushNotifications:  true,
		PrivacyLevel:       "public",
	}
}
