package sqlite

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

var _ repository.CredentialRepository = (*CredentialStore)(nil)

// CredentialStore implements repository.CredentialRepository for local
// email/password identities.
type CredentialStore struct {
	db *DB
}

// Credentials returns the credential repository backed by this database.
func (db *DB) Credentials() *CredentialStore {
	return &CredentialStore{db: db}
}

// Create inserts a local email/password credential. The generated ID is the
// identity ID that profile provisioning keys on.
// Returns apperror.ErrConflict when the email is already registered.
func (s *CredentialStore) Create(ctx context.Context, cred *model.Credential) error {
	cred.ID = xid.New().String()
	cred.CreatedAt = time.Now()

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO credentials (id, email, password_hash, created_at)
		 VALUES (?, ?, ?, ?)`,
		cred.ID,
		cred.Email,
		cred.PasswordHash,
		cred.CreatedAt,
	)
	return translateWrite("credential insert", "credential", cred.Email, err)
}

// GetByEmail looks up a credential for login.
// Returns apperror.ErrNotFound for unknown emails; callers should present
// that identically to a wrong password.
func (s *CredentialStore) GetByEmail(ctx context.Context, email string) (*model.Credential, error) {
	var c model.Credential
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM credentials WHERE email = ?`,
		email,
	).Scan(&c.ID, &c.Email, &c.PasswordHash, &c.CreatedAt)
	if err != nil {
		return nil, translateQuery("credential lookup", "credential", email, err)
	}
	return &c, nil
}
