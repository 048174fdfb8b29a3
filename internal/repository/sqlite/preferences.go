package sqlite

import (
	"context"
	"time"

	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

var _ repository.PreferencesRepository = (*PreferenceStore)(nil)

// PreferenceStore implements repository.PreferencesRepository.
type PreferenceStore struct {
	db *DB
}

// Preferences returns the preferences repository backed by this database.
func (db *DB) Preferences() *PreferenceStore {
	return &PreferenceStore{db: db}
}

// Upsert inserts or updates the preference row for a user. Preferences are
// a single row keyed on user_id.
func (s *PreferenceStore) Upsert(ctx context.Context, prefs *model.Preferences) error {
	now := time.Now()
	if prefs.CreatedAt.IsZero() {
		prefs.CreatedAt = now
	}
	prefs.UpdatedAt = now

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, email_notifications, push_notifications,
		                               privacy_level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     email_notifications = excluded.email_notifications,
		     push_notifications  = excluded.push_notifications,
		     privacy_level       = excluded.privacy_level,
		     updated_at          = excluded.updated_at`,
		prefs.UserID,
		prefs.EmailNotifications,
		prefs.PushNotifications,
		prefs.PrivacyLevel,
		prefs.CreatedAt,
		prefs.UpdatedAt,
	)
	return translateWrite("preferences upsert", "preferences", prefs.UserID, err)
}

// GetByUserID returns the preference row for a user, or ErrNotFound if the
// seed was skipped (seeding is best-effort, so absence is a normal state).
func (s *PreferenceStore) GetByUserID(ctx context.Context, userID string) (*model.Preferences, error) {
	var p model.Preferences
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT user_id, email_notifications, push_notifications, privacy_level,
		        created_at, updated_at
		 FROM user_preferences WHERE user_id = ?`,
		userID,
	).Scan(
		&p.UserID,
		&p.EmailNotifications,
		&p.PushNotifications,
		&p.PrivacyLevel,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, translateQuery("preferences lookup", "preferences", userID, err)
	}
	return &p, nil
}
