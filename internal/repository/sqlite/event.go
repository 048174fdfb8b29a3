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

var _ repository.EventRepository = (*EventStore)(nil)

// EventStore implements repository.EventRepository.
type EventStore struct {
	db *DB
}

// Events returns the event repository backed by this database.
func (db *DB) Events() *EventStore {
	return &EventStore{db: db}
}

// Create inserts a new event. attendee_count starts at 0 and is owned by
// the attendee triggers from then on.
func (s *EventStore) Create(ctx context.Context, event *model.Event) error {
	event.ID = xid.New().String()
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	var endDate sql.NullTime
	if !event.EndDate.IsZero() {
		endDate = sql.NullTime{Time: event.EndDate, Valid: true}
	}

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO events (id, title, description, organizer_id, event_date, end_date,
		                     location, city, country, venue_name, ticket_url, genres,
		                     is_online, max_attendees, attendee_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		event.ID,
		event.Title,
		event.Description,
		event.OrganizerID,
		event.EventDate,
		endDate,
		event.Location,
		event.City,
		event.Country,
		event.VenueName,
		event.TicketURL,
		joinGenres(event.Genres),
		event.IsOnline,
		event.MaxAttendees,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return translateWrite("event insert", "event", event.ID, err)
}

const eventColumns = `e.id, e.title, e.description, e.organizer_id, e.event_date,
	e.end_date, e.location, e.city, e.country, e.venue_name, e.ticket_url,
	e.genres, e.is_online, e.max_attendees, e.attendee_count,
	e.created_at, e.updated_at,
	p.id, p.username, p.display_name, p.avatar_url`

func scanEvent(row interface{ Scan(...any) error }, extra ...any) (*model.Event, error) {
	var e model.Event
	var genres string
	var endDate sql.NullTime
	var organizer model.ProfileSummary

	dest := []any{
		&e.ID, &e.Title, &e.Description, &e.OrganizerID, &e.EventDate,
		&endDate, &e.Location, &e.City, &e.Country, &e.VenueName, &e.TicketURL,
		&genres, &e.IsOnline, &e.MaxAttendees, &e.AttendeeCount,
		&e.CreatedAt, &e.UpdatedAt,
		&organizer.ID, &organizer.Username, &organizer.DisplayName, &organizer.AvatarURL,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Genres = splitGenres(genres)
	e.EndDate = endDate.Time
	e.Organizer = &organizer
	return &e, nil
}

// GetByID retrieves an event with its organizer summary.
func (s *EventStore) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := s.db.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+`
		 FROM events e JOIN profiles p ON p.id = e.organizer_id
		 WHERE e.id = ?`, id)
	e, err := scanEvent(row)
	if err != nil {
		return nil, translateQuery("event lookup", "event", id, err)
	}
	return e, nil
}

// List returns events ordered by date ascending, optionally restricted to
// upcoming events and a city substring. With a ViewerID, each event is
// marked with whether that user is attending.
func (s *EventStore) List(ctx context.Context, opts repository.EventListOptions) ([]model.Event, error) {
	query := `SELECT ` + eventColumns
	withViewer := opts.ViewerID != ""
	args := []any{}

	if withViewer {
		query += `, a.id IS NOT NULL`
	}
	query += `
		 FROM events e
		 JOIN profiles p ON p.id = e.organizer_id`
	if withViewer {
		query += `
		 LEFT JOIN event_attendees a ON a.event_id = e.id AND a.user_id = ?`
		args = append(args, opts.ViewerID)
	}
	query += ` WHERE 1=1`
	if opts.Upcoming {
		query += ` AND e.event_date >= ?`
		args = append(args, time.Now())
	}
	if opts.City != "" {
		query += ` AND e.city LIKE ?`
		args = append(args, "%"+opts.City+"%")
	}
	query += ` ORDER BY e.event_date ASC LIMIT ?`
	args = append(args, opts.Limit)

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperror.Unavailable("event list", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e *model.Event
		if withViewer {
			var attending bool
			e, err = scanEvent(rows, &attending)
			if e != nil {
				e.ViewerAttending = attending
			}
		} else {
			e, err = scanEvent(rows)
		}
		if err != nil {
			return nil, apperror.Unavailable("event list scan", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("event list", err)
	}
	return events, nil
}

// Attendees returns the attendee rows for an event with profile summaries,
// newest first.
func (s *EventStore) Attendees(ctx context.Context, eventID string, limit int) ([]model.EventAttendee, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT a.id, a.event_id, a.user_id, a.created_at,
		        p.id, p.username, p.display_name, p.avatar_url
		 FROM event_attendees a
		 JOIN profiles p ON p.id = a.user_id
		 WHERE a.event_id = ?
		 ORDER BY a.created_at DESC
		 LIMIT ?`,
		eventID, limit,
	)
	if err != nil {
		return nil, apperror.Unavailable("attendee list", err)
	}
	defer rows.Close()

	var attendees []model.EventAttendee
	for rows.Next() {
		var a model.EventAttendee
		var user model.ProfileSummary
		err := rows.Scan(
			&a.ID, &a.EventID, &a.UserID, &a.CreatedAt,
			&user.ID, &user.Username, &user.DisplayName, &user.AvatarURL,
		)
		if err != nil {
			return nil, apperror.Unavailable("attendee list scan", err)
		}
		a.User = &user
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("attendee list", err)
	}
	return attendees, nil
}
