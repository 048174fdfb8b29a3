package model

import "time"

// Event represents a concert or meetup listed on the events page.
//
// AttendeeCount mirrors count(event_attendees) the same way Release.VoteCount
// mirrors count(votes): trigger-maintained, advisory, may lag a toggle.
type Event struct {
	ID            string    `json:"id"            db:"id"`
	Title         string    `json:"title"         db:"title"`
	Description   string    `json:"description"   db:"description"`
	OrganizerID   string    `json:"organizerId"   db:"organizer_id"`
	EventDate     time.Time `json:"eventDate"     db:"event_date"`
	EndDate       time.Time `json:"endDate"       db:"end_date"` // zero if open-ended
	Location      string    `json:"location"      db:"location"`
	City          string    `json:"city"          db:"city"`
	Country       string    `json:"country"       db:"country"`
	VenueName     string    `json:"venueName"     db:"venue_name"`
	TicketURL     string    `json:"ticketUrl"     db:"ticket_url"`
	Genres        []string  `json:"genres"        db:"genres"`
	IsOnline      bool      `json:"isOnline"      db:"is_online"`
	MaxAttendees  int       `json:"maxAttendees"  db:"max_attendees"` // 0 = unlimited
	AttendeeCount int       `json:"attendeeCount" db:"attendee_count"`
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`

	Organizer *ProfileSummary `json:"organizer,omitempty"`

	// ViewerAttending reports whether the requesting user is attending.
	// Only set on queries made on behalf of a logged-in viewer.
	ViewerAttending bool `json:"viewerAttending"`
}

// EventAttendee is an attendee row joined with the attending profile.
type EventAttendee struct {
	ID        string          `json:"id"        db:"id"`
	EventID   string          `json:"eventId"   db:"event_id"`
	UserID    string          `json:"userId"    db:"user_id"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	User      *ProfileSummary `json:"user,omitempty"`
}
