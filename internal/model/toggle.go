package model

import "time"

// ToggleRelation is a join row recording that an actor has toggled "on"
// against a target: a vote on a release, or attendance on an event.
//
// Existence is the signal — there is no count field on the row, and at most
// one row exists per (actor, target) pair at any time. The UNIQUE constraint
// on (actor, target) in the database enforces that under concurrent toggles.
type ToggleRelation struct {
	ID        string    `json:"id"        db:"id"`
	ActorID   string    `json:"actorId"   db:"actor_id"`
	TargetID  string    `json:"targetId"  db:"target_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ToggleAction says which direction a toggle flipped.
type ToggleAction string

const (
	ToggleAdded   ToggleAction = "added"
	ToggleRemoved ToggleAction = "removed"
)

// ToggleResult is returned by a toggle operation.
//
// Delta is the authoritative immediate signal for optimistic UI counters:
// +1 when a row was inserted, -1 when one was deleted, and 0 when a
// concurrent request got there first (duplicate add or duplicate remove).
// The denormalized counter column on the target may lag; Delta never does.
type ToggleResult struct {
	Action ToggleAction `json:"action"`
	Delta  int          `json:"delta"`
}
