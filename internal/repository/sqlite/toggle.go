package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

var _ repository.ToggleRepository = (*ToggleStore)(nil)

// ToggleStore implements repository.ToggleRepository for one join table.
// The same code serves votes and event attendance — the tables are
// structurally identical (id, actor, target, created_at, UNIQUE(actor,
// target)), only the names differ.
//
// Table and column names are compile-time constants chosen by the Votes and
// Attendance constructors below, never user input, so interpolating them
// into the SQL is safe. Values still go through placeholders.
type ToggleStore struct {
	db        *DB
	table     string
	actorCol  string
	targetCol string
	resource  string // for error messages, e.g. "vote"
}

// Votes returns the toggle store backed by the votes table
// (actor = user, target = release).
func (db *DB) Votes() *ToggleStore {
	return &ToggleStore{
		db:        db,
		table:     "votes",
		actorCol:  "user_id",
		targetCol: "release_id",
		resource:  "vote",
	}
}

// Attendance returns the toggle store backed by the event_attendees table
// (actor = user, target = event).
func (db *DB) Attendance() *ToggleStore {
	return &ToggleStore{
		db:        db,
		table:     "event_attendees",
		actorCol:  "user_id",
		targetCol: "event_id",
		resource:  "attendance",
	}
}

// Find returns the toggle row for (actor, target).
// ErrNotFound means definitively absent; any other error means the query
// failed and the caller must NOT treat the pair as absent.
func (s *ToggleStore) Find(ctx context.Context, actorID, targetID string) (*model.ToggleRelation, error) {
	query := fmt.Sprintf(
		`SELECT id, %s, %s, created_at FROM %s WHERE %s = ? AND %s = ?`,
		s.actorCol, s.targetCol, s.table, s.actorCol, s.targetCol,
	)

	var rel model.ToggleRelation
	err := s.db.conn.QueryRowContext(ctx, query, actorID, targetID).Scan(
		&rel.ID,
		&rel.ActorID,
		&rel.TargetID,
		&rel.CreatedAt,
	)
	if err != nil {
		return nil, translateQuery(s.resource+" lookup", s.resource, actorID+"/"+targetID, err)
	}
	return &rel, nil
}

// Insert creates the toggle row, filling in ID and CreatedAt.
//
// The UNIQUE(actor, target) constraint turns a concurrent duplicate insert
// into ErrConflict rather than a second row — this is the store-side half of
// the reconciler's double-click contract.
func (s *ToggleStore) Insert(ctx context.Context, rel *model.ToggleRelation) error {
	rel.ID = xid.New().String()
	rel.CreatedAt = time.Now()

	query := fmt.Sprintf(
		`INSERT INTO %s (id, %s, %s, created_at) VALUES (?, ?, ?, ?)`,
		s.table, s.actorCol, s.targetCol,
	)
	_, err := s.db.conn.ExecContext(ctx, query,
		rel.ID,
		rel.ActorID,
		rel.TargetID,
		rel.CreatedAt,
	)
	return translateWrite(s.resource+" insert", s.resource, rel.ActorID+"/"+rel.TargetID, err)
}

// Delete removes a toggle row by its ID. Returns ErrNotFound when zero rows
// were deleted — the row was already removed by a concurrent request, which
// the reconciler collapses to a no-op.
func (s *ToggleStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.table)
	res, err := s.db.conn.ExecContext(ctx, query, id)
	if err != nil {
		return apperror.Unavailable(s.resource+" delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperror.Unavailable(s.resource+" delete", err)
	}
	if affected == 0 {
		return apperror.NotFound(s.resource, id)
	}
	return nil
}
