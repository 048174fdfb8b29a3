package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/xid"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

var _ repository.ReleaseRepository = (*ReleaseStore)(nil)

// ReleaseStore implements repository.ReleaseRepository.
type ReleaseStore struct {
	db *DB
}

// Releases returns the release repository backed by this database.
func (db *DB) Releases() *ReleaseStore {
	return &ReleaseStore{db: db}
}

// Create inserts a new release. The caller sets ArtistID; ID and timestamps
// are generated here. vote_count starts at 0 and is owned by the vote
// triggers from then on.
func (s *ReleaseStore) Create(ctx context.Context, release *model.Release) error {
	release.ID = xid.New().String()
	now := time.Now()
	release.CreatedAt = now
	release.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO releases (id, title, description, artist_id, cover_image_url,
		                       youtube_url, spotify_url, soundcloud_url, release_date,
		                       genres, vote_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		release.ID,
		release.Title,
		release.Description,
		release.ArtistID,
		release.CoverImageURL,
		release.YouTubeURL,
		release.SpotifyURL,
		release.SoundCloudURL,
		release.ReleaseDate,
		joinGenres(release.Genres),
		release.CreatedAt,
		release.UpdatedAt,
	)
	return translateWrite("release insert", "release", release.ID, err)
}

// releaseSelect joins the artist profile summary onto each release row.
const releaseSelect = `
	SELECT r.id, r.title, r.description, r.artist_id, r.cover_image_url,
	       r.youtube_url, r.spotify_url, r.soundcloud_url, r.release_date,
	       r.genres, r.vote_count, r.created_at, r.updated_at,
	       p.id, p.username, p.display_name, p.avatar_url
	FROM releases r
	JOIN profiles p ON p.id = r.artist_id`

func scanRelease(row interface{ Scan(...any) error }) (*model.Release, error) {
	var r model.Release
	var genres string
	var artist model.ProfileSummary
	err := row.Scan(
		&r.ID,
		&r.Title,
		&r.Description,
		&r.ArtistID,
		&r.CoverImageURL,
		&r.YouTubeURL,
		&r.SpotifyURL,
		&r.SoundCloudURL,
		&r.ReleaseDate,
		&genres,
		&r.VoteCount,
		&r.CreatedAt,
		&r.UpdatedAt,
		&artist.ID,
		&artist.Username,
		&artist.DisplayName,
		&artist.AvatarURL,
	)
	if err != nil {
		return nil, err
	}
	r.Genres = splitGenres(genres)
	r.Artist = &artist
	return &r, nil
}

// GetByID retrieves a release with its artist summary.
func (s *ReleaseStore) GetByID(ctx context.Context, id string) (*model.Release, error) {
	row := s.db.conn.QueryRowContext(ctx, releaseSelect+` WHERE r.id = ?`, id)
	r, err := scanRelease(row)
	if err != nil {
		return nil, translateQuery("release lookup", "release", id, err)
	}
	return r, nil
}

// List returns releases ordered by votes or recency. When opts.ViewerID is
// set, each release is additionally marked with whether that user has voted
// for it (a LEFT JOIN against the votes table — one query, no N+1).
//
// Ordering uses the denormalized vote_count column. It is advisory: a toggle
// racing this read may not be reflected yet, which is acceptable for a
// listing page.
func (s *ReleaseStore) List(ctx context.Context, opts repository.ReleaseListOptions) ([]model.Release, error) {
	order := `r.vote_count DESC, r.created_at DESC`
	if opts.SortBy == repository.SortByRecent {
		order = `r.created_at DESC`
	}

	var rows *sql.Rows
	var err error
	withViewer := opts.ViewerID != ""
	if withViewer {
		query := `
			SELECT r.id, r.title, r.description, r.artist_id, r.cover_image_url,
			       r.youtube_url, r.spotify_url, r.soundcloud_url, r.release_date,
			       r.genres, r.vote_count, r.created_at, r.updated_at,
			       p.id, p.username, p.display_name, p.avatar_url,
			       v.id IS NOT NULL
			FROM releases r
			JOIN profiles p ON p.id = r.artist_id
			LEFT JOIN votes v ON v.release_id = r.id AND v.user_id = ?
			ORDER BY ` + order + ` LIMIT ?`
		rows, err = s.db.conn.QueryContext(ctx, query, opts.ViewerID, opts.Limit)
	} else {
		rows, err = s.db.conn.QueryContext(ctx,
			releaseSelect+` ORDER BY `+order+` LIMIT ?`, opts.Limit)
	}
	if err != nil {
		return nil, apperror.Unavailable("release list", err)
	}
	defer rows.Close()

	var releases []model.Release
	for rows.Next() {
		var r *model.Release
		if withViewer {
			r = &model.Release{Artist: &model.ProfileSummary{}}
			var genres string
			err = rows.Scan(
				&r.ID, &r.Title, &r.Description, &r.ArtistID, &r.CoverImageURL,
				&r.YouTubeURL, &r.SpotifyURL, &r.SoundCloudURL, &r.ReleaseDate,
				&genres, &r.VoteCount, &r.CreatedAt, &r.UpdatedAt,
				&r.Artist.ID, &r.Artist.Username, &r.Artist.DisplayName, &r.Artist.AvatarURL,
				&r.ViewerVoted,
			)
			if err == nil {
				r.Genres = splitGenres(genres)
			}
		} else {
			r, err = scanRelease(rows)
		}
		if err != nil {
			return nil, apperror.Unavailable("release list scan", err)
		}
		releases = append(releases, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("release list", err)
	}
	return releases, nil
}

// ListByArtist returns an artist's releases, newest first.
func (s *ReleaseStore) ListByArtist(ctx context.Context, artistID string, limit int) ([]model.Release, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		releaseSelect+` WHERE r.artist_id = ? ORDER BY r.created_at DESC LIMIT ?`,
		artistID, limit,
	)
	if err != nil {
		return nil, apperror.Unavailable("artist release list", err)
	}
	defer rows.Close()

	var releases []model.Release
	for rows.Next() {
		r, err := scanRelease(rows)
		if err != nil {
			return nil, apperror.Unavailable("artist release list scan", err)
		}
		releases = append(releases, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("artist release list", err)
	}
	return releases, nil
}
