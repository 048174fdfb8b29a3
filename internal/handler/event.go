package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/auth"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/service"
)

// EventHandler serves the event endpoints, including the attendance toggle.
type EventHandler struct {
	events     *service.EventService
	attendance *service.ToggleService
	logger     *slog.Logger
}

func NewEventHandler(events *service.EventService, attendance *service.ToggleService, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events:     events,
		attendance: attendance,
		logger:     logger,
	}
}

// HandleList returns upcoming events, optionally filtered by city.
//
// HTTP: GET /api/events?city=porto&limit=20
// Auth: Optional — a signed-in viewer gets viewerAttending marked per event.
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.events.ListUpcoming(r.Context(), r.URL.Query().Get("city"), limit, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleGet returns one event.
//
// HTTP: GET /api/events/{id}
func (h *EventHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// HandleCreate lists a new event organized by the signed-in user.
//
// HTTP: POST /api/events (RequireAuth)
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		EventDate    string   `json:"eventDate"` // RFC 3339
		EndDate      string   `json:"endDate"`
		Location     string   `json:"location"`
		City         string   `json:"city"`
		Country      string   `json:"country"`
		VenueName    string   `json:"venueName"`
		TicketURL    string   `json:"ticketUrl"`
		Genres       []string `json:"genres"`
		IsOnline     bool     `json:"isOnline"`
		MaxAttendees int      `json:"maxAttendees"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	eventDate, err := time.Parse(time.RFC3339, req.EventDate)
	if err != nil {
		writeError(w, apperror.ValidationFailed("eventDate", "event date must be RFC 3339"))
		return
	}
	var endDate time.Time
	if req.EndDate != "" {
		endDate, err = time.Parse(time.RFC3339, req.EndDate)
		if err != nil {
			writeError(w, apperror.ValidationFailed("endDate", "end date must be RFC 3339"))
			return
		}
	}

	event, err := h.events.Create(r.Context(), userID, &model.Event{
		Title:        req.Title,
		Description:  req.Description,
		EventDate:    eventDate,
		EndDate:      endDate,
		Location:     req.Location,
		City:         req.City,
		Country:      req.Country,
		VenueName:    req.VenueName,
		TicketURL:    req.TicketURL,
		Genres:       req.Genres,
		IsOnline:     req.IsOnline,
		MaxAttendees: req.MaxAttendees,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// HandleAttend toggles the signed-in user's attendance on an event.
//
// HTTP: POST /api/events/{id}/attend (RequireAuth)
func (h *EventHandler) HandleAttend(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	eventID := r.PathValue("id")
	if _, err := h.events.GetByID(r.Context(), eventID); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.attendance.Toggle(r.Context(), userID, eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleAttendees returns who is attending an event.
//
// HTTP: GET /api/events/{id}/attendees
func (h *EventHandler) HandleAttendees(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	attendees, err := h.events.Attendees(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}
