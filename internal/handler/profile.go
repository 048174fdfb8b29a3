package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/genorama/genorama/internal/auth"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/service"
)

// ProfileHandler serves public profile pages and the owner's settings.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// HandleGetByUsername returns the profile behind a public handle.
//
// HTTP: GET /api/profiles/{username}
func (h *ProfileHandler) HandleGetByUsername(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleSearchBands returns band profiles matching a query.
//
// HTTP: GET /api/bands?q=fado&limit=20
func (h *ProfileHandler) HandleSearchBands(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	bands, err := h.profiles.SearchBands(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bands)
}

// HandleUpdateSettings applies profile edits for the signed-in user.
//
// HTTP: PUT /api/settings/profile (RequireAuth)
func (h *ProfileHandler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		DisplayName  string   `json:"displayName"`
		Bio          string   `json:"bio"`
		AvatarURL    string   `json:"avatarUrl"`
		WebsiteURL   string   `json:"websiteUrl"`
		SpotifyURL   string   `json:"spotifyUrl"`
		YouTubeURL   string   `json:"youtubeUrl"`
		InstagramURL string   `json:"instagramUrl"`
		Location     string   `json:"location"`
		Genres       []string `json:"genres"`
		IsBand       bool     `json:"isBand"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.profiles.UpdateSettings(r.Context(), userID, &model.Profile{
		ID:           userID,
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		AvatarURL:    req.AvatarURL,
		WebsiteURL:   req.WebsiteURL,
		SpotifyURL:   req.SpotifyURL,
		YouTubeURL:   req.YouTubeURL,
		InstagramURL: req.InstagramURL,
		Location:     req.Location,
		Genres:       req.Genres,
		IsBand:       req.IsBand,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleGetPreferences returns the signed-in user's preferences.
//
// HTTP: GET /api/settings/preferences (RequireAuth)
func (h *ProfileHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	prefs, err := h.profiles.GetPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

// HandleUpdatePreferences saves the signed-in user's preferences.
//
// HTTP: PUT /api/settings/preferences (RequireAuth)
func (h *ProfileHandler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		EmailNotifications bool   `json:"emailNotifications"`
		PushNotifications  bool   `json:"pushNotifications"`
		PrivacyLevel       string `json:"privacyLevel"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	prefs, err := h.profiles.UpdatePreferences(r.Context(), userID, &model.Preferences{
		EmailNotifications: req.EmailNotifications,
		PushNotifications:  req.PushNotifications,
		PrivacyLevel:       req.PrivacyLevel,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}
