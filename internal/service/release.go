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

const MaxReleaseTitleLength = 200

// ReleaseService handles creation and listing of music releases.
type ReleaseService struct {
	releases repository.ReleaseRepository
	logger   *slog.Logger
}

func NewReleaseService(releases repository.ReleaseRepository, logger *slog.Logger) *ReleaseService {
	return &ReleaseService{
		releases: releases,
		logger:   logger,
	}
}

// Create saves a new release owned by the acting artist.
func (s *ReleaseService) Create(ctx context.Context, actorID string, release *model.Release) (*model.Release, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required to post a release")
	}
	if release == nil {
		return nil, apperror.ValidationFailed("release", "release body is required")
	}

	title := strings.TrimSpace(release.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "release title is required")
	}
	if len(title) > MaxReleaseTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxReleaseTitleLength))
	}

	release.Title = title
	release.ArtistID = actorID
	release.Description = strings.TrimSpace(release.Description)

	if err := s.releases.Create(ctx, release); err != nil {
		s.logger.Error("failed to create release",
			slog.String("artistID", actorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating release: %w", err)
	}

	s.logger.Info("release created",
		slog.String("id", release.ID),
		slog.String("artistID", actorID),
		slog.String("title", release.Title),
	)

	return release, nil
}

// GetByID returns one release with its artist summary joined.
func (s *ReleaseService) GetByID(ctx context.Context, id string) (*model.Release, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperror.ValidationFailed("id", "release ID is required")
	}
	return s.releases.GetByID(ctx, id)
}

// List returns releases ordered by votes or recency. When viewerID is
// non-empty each release is marked with whether that viewer voted for it.
func (s *ReleaseService) List(ctx context.Context, sortBy repository.ReleaseSort, limit int, viewerID string) ([]model.Release, error) {
	if sortBy != repository.SortByVotes && sortBy != repository.SortByRecent {
		sortBy = repository.SortByRecent
	}
	return s.releases.List(ctx, repository.ReleaseListOptions{
		Limit:    clampLimit(limit),
		SortBy:   sortBy,
		ViewerID: viewerID,
	})
}

// ListByArtist returns an artist's releases, newest first.
func (s *ReleaseService) ListByArtist(ctx context.Context, artistID string, limit int) ([]model.Release, error) {
	if artistID == "" {
		return nil, apperror.ValidationFailed("artistId", "artist ID is required")
	}
	return s.releases.ListByArtist(ctx, artistID, clampLimit(limit))
}
