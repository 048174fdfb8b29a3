package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

// compile-time check that *ProfileStore implements repository.ProfileRepository
var _ repository.ProfileRepository = (*ProfileStore)(nil)

// ProfileStore implements repository.ProfileRepository.
type ProfileStore struct {
	db *DB
}

// Profiles returns the profile repository backed by this database.
func (db *DB) Profiles() *ProfileStore {
	return &ProfileStore{db: db}
}

// Upsert inserts or updates a profile keyed on its ID (the identity ID from
// the auth layer).
//
// An existing row KEEPS its username — re-provisioning after a retried OAuth
// callback must not churn the handle the user already has. Only the display
// fields (name, email, avatar) are refreshed, in case they changed at the
// provider.
func (s *ProfileStore) Upsert(ctx context.Context, profile *model.Profile) error {
	var existingUsername string
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT username FROM profiles WHERE id = ?`, profile.ID,
	).Scan(&existingUsername)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return apperror.Unavailable("profile lookup", err)
	}

	if existingUsername != "" {
		profile.Username = existingUsername
		profile.UpdatedAt = time.Now()
		_, err = s.db.conn.ExecContext(ctx,
			`UPDATE profiles SET display_name = ?, email = ?, avatar_url = ?, updated_at = ?
			 WHERE id = ?`,
			profile.DisplayName,
			profile.Email,
			profile.AvatarURL,
			profile.UpdatedAt,
			profile.ID,
		)
		return translateWrite("profile update", "profile", profile.ID, err)
	}

	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err = s.db.conn.ExecContext(ctx,
		`INSERT INTO profiles (id, username, display_name, email, bio, avatar_url,
		                       website_url, spotify_url, youtube_url, instagram_url,
		                       location, genres, is_band, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		profile.ID,
		profile.Username,
		profile.DisplayName,
		profile.Email,
		profile.Bio,
		profile.AvatarURL,
		profile.WebsiteURL,
		profile.SpotifyURL,
		profile.YouTubeURL,
		profile.InstagramURL,
		profile.Location,
		joinGenres(profile.Genres),
		profile.IsBand,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	// A conflict here is the username race the resolver warned about:
	// another identity claimed the handle between probe and insert. The
	// caller retries resolution with the next suffix.
	return translateWrite("profile insert", "profile", profile.Username, err)
}

const profileColumns = `id, username, display_name, email, bio, avatar_url,
	website_url, spotify_url, youtube_url, instagram_url,
	location, genres, is_band, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var genres string
	err := row.Scan(
		&p.ID,
		&p.Username,
		&p.DisplayName,
		&p.Email,
		&p.Bio,
		&p.AvatarURL,
		&p.WebsiteURL,
		&p.SpotifyURL,
		&p.YouTubeURL,
		&p.InstagramURL,
		&p.Location,
		&genres,
		&p.IsBand,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Genres = splitGenres(genres)
	return &p, nil
}

// GetByID retrieves a profile by its identity ID.
// Returns apperror.ErrNotFound if no profile exists with that ID.
func (s *ProfileStore) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, translateQuery("profile lookup", "profile", id, err)
	}
	return p, nil
}

// GetByUsername retrieves a profile by its unique handle.
//
// This is the handle resolver's probe. The distinction in the returned error
// matters: ErrNotFound means the handle is free, ErrUnavailable means the
// probe itself failed and the caller must abort rather than assume free.
func (s *ProfileStore) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = ?`, username)
	p, err := scanProfile(row)
	if err != nil {
		return nil, translateQuery("username probe", "profile", username, err)
	}
	return p, nil
}

// SearchBands returns band profiles matching the query on username or
// display name, case-insensitively, newest first. An empty query lists all
// bands.
func (s *ProfileStore) SearchBands(ctx context.Context, query string, limit int) ([]model.Profile, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+profileColumns+`
		 FROM profiles
		 WHERE is_band = 1 AND (username LIKE ? OR display_name LIKE ?)
		 ORDER BY created_at DESC
		 LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, apperror.Unavailable("band search", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, apperror.Unavailable("band search scan", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("band search", err)
	}
	return profiles, nil
}

// UpdateSettings persists the owner-editable fields of a profile.
// A username change can conflict with another profile's handle; that
// surfaces as ErrConflict for the handler to report as "handle taken".
func (s *ProfileStore) UpdateSettings(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now()
	res, err := s.db.conn.ExecContext(ctx,
		`UPDATE profiles SET username = ?, display_name = ?, bio = ?, avatar_url = ?,
		        website_url = ?, spotify_url = ?, youtube_url = ?, instagram_url = ?,
		        location = ?, genres = ?, is_band = ?, updated_at = ?
		 WHERE id = ?`,
		profile.Username,
		profile.DisplayName,
		profile.Bio,
		profile.AvatarURL,
		profile.WebsiteURL,
		profile.SpotifyURL,
		profile.YouTubeURL,
		profile.InstagramURL,
		profile.Location,
		joinGenres(profile.Genres),
		profile.IsBand,
		profile.UpdatedAt,
		profile.ID,
	)
	if err != nil {
		return translateWrite("profile settings update", "profile", profile.Username, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Unavailable("profile settings update", err)
	}
	if affected == 0 {
		return apperror.NotFound("profile", profile.ID)
	}
	return nil
}
