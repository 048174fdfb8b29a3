package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

// ToggleService flips the existence of a join row between an actor and a
// target. One instance per join table: votes on releases, attendance on
// events. The semantics are identical, only the repository differs.
//
// Per (actor, target) pair the row is either absent or present, and Toggle
// is the only transition. The returned Delta is what the frontend applies
// to its optimistic counter: +1 on insert, -1 on delete, 0 when a
// concurrent request flipped the state first. The denormalized counter
// column on the target (vote_count, attendee_count) is maintained by
// database triggers and may momentarily lag; Delta never does.
type ToggleService struct {
	repo   repository.ToggleRepository
	name   string // "vote" or "attendance", for log lines
	logger *slog.Logger
}

func NewToggleService(repo repository.ToggleRepository, name string, logger *slog.Logger) *ToggleService {
	return &ToggleService{
		repo:   repo,
		name:   name,
		logger: logger,
	}
}

// Toggle flips the (actor, target) relation and reports which way it went.
//
// The lookup must distinguish "definitively absent" from "lookup failed":
// only a genuine not-found proceeds to the insert path. Any other lookup
// error aborts — inserting after a failed lookup could double-add.
//
// Races resolve without errors in both directions. An insert that loses to
// a concurrent insert hits the UNIQUE constraint and is reported as
// {added, 0}; a delete that loses to a concurrent delete finds the row
// gone and is reported as {removed, 0}.
func (s *ToggleService) Toggle(ctx context.Context, actorID, targetID string) (*model.ToggleResult, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required")
	}
	if targetID == "" {
		return nil, apperror.ValidationFailed("targetId", "target ID is required")
	}

	existing, err := s.repo.Find(ctx, actorID, targetID)
	switch {
	case err == nil:
		// Present → remove.
		if err := s.repo.Delete(ctx, existing.ID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				// Concurrent remove got there first.
				return &model.ToggleResult{Action: model.ToggleRemoved, Delta: 0}, nil
			}
			return nil, fmt.Errorf("removing %s: %w", s.name, err)
		}
		s.logger.Info("toggle removed",
			slog.String("kind", s.name),
			slog.String("actorID", actorID),
			slog.String("targetID", targetID),
		)
		return &model.ToggleResult{Action: model.ToggleRemoved, Delta: -1}, nil

	case errors.Is(err, apperror.ErrNotFound):
		// Absent → add.
		rel := &model.ToggleRelation{ActorID: actorID, TargetID: targetID}
		if err := s.repo.Insert(ctx, rel); err != nil {
			if errors.Is(err, apperror.ErrConflict) {
				// Concurrent add got there first; the desired state holds.
				return &model.ToggleResult{Action: model.ToggleAdded, Delta: 0}, nil
			}
			return nil, fmt.Errorf("adding %s: %w", s.name, err)
		}
		s.logger.Info("toggle added",
			slog.String("kind", s.name),
			slog.String("actorID", actorID),
			slog.String("targetID", targetID),
		)
		return &model.ToggleResult{Action: model.ToggleAdded, Delta: +1}, nil

	default:
		// Lookup failed for a reason other than "no row" — abort.
		return nil, fmt.Errorf("checking %s state: %w", s.name, err)
	}
}
