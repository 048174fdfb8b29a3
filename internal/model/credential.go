package model

import "time"

// Credential is a local email/password identity. Most users sign in through
// Google OAuth and never get one of these; the signup form creates them.
// The credential's ID is the identity ID the profile is keyed on.
type Credential struct {
	ID           string    `json:"id"    db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-"     db:"password_hash"` // bcrypt, never serialized
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
