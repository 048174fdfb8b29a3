package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

const MaxEventTitleLength = 200

// EventService handles concert and meetup listings.
type EventService struct {
	events repository.EventRepository
	logger *slog.Logger
}

func NewEventService(events repository.EventRepository, logger *slog.Logger) *EventService {
	return &EventService{
		events: events,
		logger: logger,
	}
}

// Create saves a new event organized by the acting user.
func (s *EventService) Create(ctx context.Context, actorID string, event *model.Event) (*model.Event, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required to create an event")
	}
	if event == nil {
		return nil, apperror.ValidationFailed("event", "event body is required")
	}

	title := strings.TrimSpace(event.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "event title is required")
	}
	if len(title) > MaxEventTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxEventTitleLength))
	}
	if event.EventDate.IsZero() {
		return nil, apperror.ValidationFailed("eventDate", "event date is required")
	}
	if !event.EndDate.IsZero() && event.EndDate.Before(event.EventDate) {
		return nil, apperror.ValidationFailed("endDate", "end date cannot be before the event date")
	}
	if strings.TrimSpace(event.City) == "" && !event.IsOnline {
		return nil, apperror.ValidationFailed("city", "city is required for in-person events")
	}
	if event.MaxAttendees < 0 {
		return nil, apperror.ValidationFailed("maxAttendees", "max attendees cannot be negative")
	}

	event.Title = title
	event.OrganizerID = actorID
	event.Description = strings.TrimSpace(event.Description)

	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("failed to create event",
			slog.String("organizerID", actorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating event: %w", err)
	}

	s.logger.Info("event created",
		slog.String("id", event.ID),
		slog.String("organizerID", actorID),
		slog.Time("date", event.EventDate),
	)

	return event, nil
}

// GetByID returns one event with its organizer summary joined.
func (s *EventService) GetByID(ctx context.Context, id string) (*model.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "event ID is required")
	}
	return s.events.GetByID(ctx, id)
}

// ListUpcoming returns future events, optionally filtered by city. When
// viewerID is non-empty each event is marked with whether that viewer is
// attending.
func (s *EventService) ListUpcoming(ctx context.Context, city string, limit int, viewerID string) ([]model.Event, error) {
	return s.events.List(ctx, repository.EventListOptions{
		Limit:    clampLimit(limit),
		City:     strings.TrimSpace(city),
		Upcoming: true,
		ViewerID: viewerID,
	})
}

// Attendees returns the users attending an event.
func (s *EventService) Attendees(ctx context.Context, eventID string, limit int) ([]model.EventAttendee, error) {
	if eventID == "" {
		return nil, apperror.ValidationFailed("eventId", "event ID is required")
	}
	// Confirm the event exists so a bad ID is a 404, not an empty list.
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.events.Attendees(ctx, eventID, clampLimit(limit))
}
