// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — works everywhere Go works.
//
// This package is also where the application's authoritative uniqueness
// lives. The handle resolver and the toggle reconciler only do best-effort
// pre-checks; the UNIQUE constraints declared in migrate() are what actually
// prevent duplicate usernames and duplicate (actor, target) toggle rows when
// two requests race. Every method here translates driver errors into the
// three-way apperror contract (NotFound / Conflict / Unavailable) described
// in the repository package.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/genorama/genorama/internal/apperror"

	// Side-effect import: registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// One *DB implements every single-table repository interface; the toggle
// tables get their own parameterized store (see toggle.go).
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/genorama.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Surface a bad path or permissions problem now, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in flight — needed for a
	// web server where many requests hit the DB at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite for backwards compatibility.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps this
// idempotent — safe to run on every startup.
func (db *DB) migrate() error {
	// Profiles. The UNIQUE constraint on username is the authoritative
	// backstop behind the handle resolver's best-effort probe: a race on the
	// same handle fails here at write time and is retried with the next
	// suffix by the caller.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			display_name  TEXT NOT NULL,
			email         TEXT NOT NULL DEFAULT '',
			bio           TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			website_url   TEXT NOT NULL DEFAULT '',
			spotify_url   TEXT NOT NULL DEFAULT '',
			youtube_url   TEXT NOT NULL DEFAULT '',
			instagram_url TEXT NOT NULL DEFAULT '',
			location      TEXT NOT NULL DEFAULT '',
			genres        TEXT NOT NULL DEFAULT '',
			is_band       INTEGER NOT NULL DEFAULT 0,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_profiles_is_band ON profiles(is_band);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	// Local email/password identities. Google OAuth users never get a row.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS credentials (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating credentials table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user_preferences (
			user_id             TEXT PRIMARY KEY REFERENCES profiles(id),
			email_notifications INTEGER NOT NULL DEFAULT 1,
			push_notifications  INTEGER NOT NULL DEFAULT 1,
			privacy_level       TEXT NOT NULL DEFAULT 'public',
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating user_preferences table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS releases (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			artist_id       TEXT NOT NULL REFERENCES profiles(id),
			cover_image_url TEXT NOT NULL DEFAULT '',
			youtube_url     TEXT NOT NULL DEFAULT '',
			spotify_url     TEXT NOT NULL DEFAULT '',
			soundcloud_url  TEXT NOT NULL DEFAULT '',
			release_date    TEXT NOT NULL DEFAULT '',
			genres          TEXT NOT NULL DEFAULT '',
			vote_count      INTEGER NOT NULL DEFAULT 0,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_releases_artist_id ON releases(artist_id);
		CREATE INDEX IF NOT EXISTS idx_releases_vote_count ON releases(vote_count);
	`)
	if err != nil {
		return fmt.Errorf("creating releases table: %w", err)
	}

	// Votes. UNIQUE(user_id, release_id) is the toggle reconciler's sole
	// serialization point: concurrent double-clicks race to this constraint
	// and the loser's insert comes back as a conflict.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS votes (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES profiles(id),
			release_id TEXT NOT NULL REFERENCES releases(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, release_id)
		);
		CREATE INDEX IF NOT EXISTS idx_votes_release_id ON votes(release_id);
	`)
	if err != nil {
		return fmt.Errorf("creating votes table: %w", err)
	}

	// vote_count is a derived cache of count(votes) per release. The
	// triggers keep it consistent inside the store itself, so the toggle
	// reconciler never writes the counter — its contract covers only the
	// relation row's existence.
	_, err = db.conn.Exec(`
		CREATE TRIGGER IF NOT EXISTS trg_votes_insert AFTER INSERT ON votes
		BEGIN
			UPDATE releases SET vote_count = vote_count + 1 WHERE id = NEW.release_id;
		END;
		CREATE TRIGGER IF NOT EXISTS trg_votes_delete AFTER DELETE ON votes
		BEGIN
			UPDATE releases SET vote_count = vote_count - 1 WHERE id = OLD.release_id;
		END;
	`)
	if err != nil {
		return fmt.Errorf("creating vote triggers: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id             TEXT PRIMARY KEY,
			title          TEXT NOT NULL,
			description    TEXT NOT NULL DEFAULT '',
			organizer_id   TEXT NOT NULL REFERENCES profiles(id),
			event_date     DATETIME NOT NULL,
			end_date       DATETIME,
			location       TEXT NOT NULL DEFAULT '',
			city           TEXT NOT NULL DEFAULT '',
			country        TEXT NOT NULL DEFAULT '',
			venue_name     TEXT NOT NULL DEFAULT '',
			ticket_url     TEXT NOT NULL DEFAULT '',
			genres         TEXT NOT NULL DEFAULT '',
			is_online      INTEGER NOT NULL DEFAULT 0,
			max_attendees  INTEGER NOT NULL DEFAULT 0,
			attendee_count INTEGER NOT NULL DEFAULT 0,
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_event_date ON events(event_date);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS event_attendees (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES profiles(id),
			event_id   TEXT NOT NULL REFERENCES events(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, event_id)
		);
		CREATE INDEX IF NOT EXISTS idx_event_attendees_event_id ON event_attendees(event_id);
	`)
	if err != nil {
		return fmt.Errorf("creating event_attendees table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TRIGGER IF NOT EXISTS trg_attendees_insert AFTER INSERT ON event_attendees
		BEGIN
			UPDATE events SET attendee_count = attendee_count + 1 WHERE id = NEW.event_id;
		END;
		CREATE TRIGGER IF NOT EXISTS trg_attendees_delete AFTER DELETE ON event_attendees
		BEGIN
			UPDATE events SET attendee_count = attendee_count - 1 WHERE id = OLD.event_id;
		END;
	`)
	if err != nil {
		return fmt.Errorf("creating attendee triggers: %w", err)
	}

	// Donations are append-only. donor_id is nullable: NULL means the
	// donation was anonymous and the acting identity is deliberately not
	// recorded. The CHECK mirrors the service-level amount validation.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS donations (
			id             TEXT PRIMARY KEY,
			donor_id       TEXT REFERENCES profiles(id),
			recipient_id   TEXT NOT NULL REFERENCES profiles(id),
			amount         REAL NOT NULL CHECK(amount > 0),
			message        TEXT NOT NULL DEFAULT '',
			is_anonymous   INTEGER NOT NULL DEFAULT 0,
			payment_status TEXT NOT NULL DEFAULT 'pending',
			payment_id     TEXT NOT NULL DEFAULT '',
			created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_donations_recipient_id ON donations(recipient_id);
	`)
	if err != nil {
		return fmt.Errorf("creating donations table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS forum_categories (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			color       TEXT NOT NULL DEFAULT '#6b7280',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS forum_posts (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			content       TEXT NOT NULL,
			author_id     TEXT NOT NULL REFERENCES profiles(id),
			category_id   TEXT NOT NULL REFERENCES forum_categories(id),
			is_pinned     INTEGER NOT NULL DEFAULT 0,
			reply_count   INTEGER NOT NULL DEFAULT 0,
			last_reply_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_forum_posts_category_id ON forum_posts(category_id);
		CREATE TABLE IF NOT EXISTS forum_replies (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			author_id  TEXT NOT NULL REFERENCES profiles(id),
			post_id    TEXT NOT NULL REFERENCES forum_posts(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_forum_replies_post_id ON forum_replies(post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating forum tables: %w", err)
	}

	return db.seedForumCategories()
}

// seedForumCategories inserts the default discussion categories. INSERT OR
// IGNORE makes this idempotent across restarts (name is UNIQUE).
func (db *DB) seedForumCategories() error {
	seed := []struct{ id, name, description, color string }{
		{"cat-general", "General", "Anything about the local music scene", "#6b7280"},
		{"cat-releases", "Releases", "Discuss new singles, EPs and albums", "#8b5cf6"},
		{"cat-gigs", "Gigs & Events", "Upcoming shows, meetups and festivals", "#f59e0b"},
		{"cat-production", "Production & Gear", "Recording, mixing, instruments", "#10b981"},
	}
	for _, c := range seed {
		_, err := db.conn.Exec(
			`INSERT OR IGNORE INTO forum_categories (id, name, description, color)
			 VALUES (?, ?, ?, ?)`,
			c.id, c.name, c.description, c.color,
		)
		if err != nil {
			return fmt.Errorf("seeding forum category %s: %w", c.name, err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE (or primary key)
// constraint failure. The modernc driver surfaces these in the error text;
// matching on the constant SQLite message is the established way to detect
// them without a CGo errno.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE")
}

// translateWrite maps a write error onto the repository error contract.
func translateWrite(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperror.Conflict(resource, id)
	}
	return apperror.Unavailable(op, err)
}

// translateQuery maps a read error onto the repository error contract.
// sql.ErrNoRows becomes ErrNotFound so callers can branch on "definitively
// absent" versus "query failed".
func translateQuery(op, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return apperror.Unavailable(op, err)
}

// joinGenres / splitGenres pack a genre list into a single TEXT column.
// Genres are short labels without commas, so a comma join is unambiguous.
func joinGenres(genres []string) string {
	return strings.Join(genres, ",")
}

func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
