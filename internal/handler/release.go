package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/genorama/genorama/internal/auth"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
	"github.com/genorama/genorama/internal/service"
)

// ReleaseHandler serves the release endpoints, including the vote toggle.
type ReleaseHandler struct {
	releases *service.ReleaseService
	votes    *service.ToggleService
	logger   *slog.Logger
}

func NewReleaseHandler(releases *service.ReleaseService, votes *service.ToggleService, logger *slog.Logger) *ReleaseHandler {
	return &ReleaseHandler{
		releases: releases,
		votes:    votes,
		logger:   logger,
	}
}

// HandleList returns releases, by votes or by recency.
//
// HTTP: GET /api/releases?sort=votes|recent&limit=20
// Auth: Optional — a signed-in viewer gets viewerVoted marked per release.
func (h *ReleaseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	sortBy := repository.ReleaseSort(r.URL.Query().Get("sort"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	releases, err := h.releases.List(r.Context(), sortBy, limit, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, releases)
}

// HandleGet returns one release.
//
// HTTP: GET /api/releases/{id}
func (h *ReleaseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	release, err := h.releases.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, release)
}

// HandleCreate posts a new release owned by the signed-in artist.
//
// HTTP: POST /api/releases (RequireAuth)
func (h *ReleaseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		CoverImageURL string   `json:"coverImageUrl"`
		YouTubeURL    string   `json:"youtubeUrl"`
		SpotifyURL    string   `json:"spotifyUrl"`
		SoundCloudURL string   `json:"soundcloudUrl"`
		ReleaseDate   string   `json:"releaseDate"`
		Genres        []string `json:"genres"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	release, err := h.releases.Create(r.Context(), userID, &model.Release{
		Title:         req.Title,
		Description:   req.Description,
		CoverImageURL: req.CoverImageURL,
		YouTubeURL:    req.YouTubeURL,
		SpotifyURL:    req.SpotifyURL,
		SoundCloudURL: req.SoundCloudURL,
		ReleaseDate:   req.ReleaseDate,
		Genres:        req.Genres,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, release)
}

// HandleVote toggles the signed-in user's vote on a release.
//
// HTTP: POST /api/releases/{id}/vote (RequireAuth)
//
// The response delta (+1, -1, or 0 when a concurrent request got there
// first) is what the frontend applies to its optimistic counter.
func (h *ReleaseHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	// Voting on a release that doesn't exist is a 404, not a dangling row.
	releaseID := r.PathValue("id")
	if _, err := h.releases.GetByID(r.Context(), releaseID); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.votes.Toggle(r.Context(), userID, releaseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleListByArtist returns an artist's releases.
//
// HTTP: GET /api/artists/{id}/releases
func (h *ReleaseHandler) HandleListByArtist(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	releases, err := h.releases.ListByArtist(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, releases)
}
