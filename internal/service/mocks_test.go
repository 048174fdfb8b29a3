package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

// In-memory mock repositories. Each mock stores rows in maps and supports
// error injection (the *Err fields) so tests can simulate a store outage or
// a uniqueness race that would be hard to trigger against real SQLite.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- profiles ---

type mockProfileRepo struct {
	profiles map[string]*model.Profile // keyed by ID

	probeErr      error // injected into GetByUsername
	upsertErr     error // injected into Upsert (one-shot when upsertErrOnce)
	upsertErrOnce bool
	getByIDErr    error // injected into GetByID
	upsertCalls   int
	settingsCalls int
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (m *mockProfileRepo) Upsert(_ context.Context, p *model.Profile) error {
	m.upsertCalls++
	if m.upsertErr != nil {
		err := m.upsertErr
		if m.upsertErrOnce {
			m.upsertErr = nil
		}
		return err
	}
	if existing, ok := m.profiles[p.ID]; ok {
		p.Username = existing.Username
	} else {
		// Enforce the username UNIQUE constraint like the real store.
		for _, other := range m.profiles {
			if other.Username == p.Username {
				return apperror.Conflict("profile", p.Username)
			}
		}
		p.CreatedAt = time.Now()
	}
	stored := *p
	m.profiles[p.ID] = &stored
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}
	p, ok := m.profiles[id]
	if !ok {
		return nil, apperror.NotFound("profile", id)
	}
	result := *p
	return &result, nil
}

func (m *mockProfileRepo) GetByUsername(_ context.Context, username string) (*model.Profile, error) {
	if m.probeErr != nil {
		return nil, m.probeErr
	}
	for _, p := range m.profiles {
		if p.Username == username {
			result := *p
			return &result, nil
		}
	}
	return nil, apperror.NotFound("profile", username)
}

func (m *mockProfileRepo) SearchBands(_ context.Context, query string, limit int) ([]model.Profile, error) {
	var result []model.Profile
	for _, p := range m.profiles {
		if !p.IsBand {
			continue
		}
		if query == "" ||
			strings.Contains(strings.ToLower(p.Username), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(p.DisplayName), strings.ToLower(query)) {
			result = append(result, *p)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockProfileRepo) UpdateSettings(_ context.Context, p *model.Profile) error {
	m.settingsCalls++
	if _, ok := m.profiles[p.ID]; !ok {
		return apperror.NotFound("profile", p.ID)
	}
	stored := *p
	m.profiles[p.ID] = &stored
	return nil
}

// --- preferences ---

type mockPreferencesRepo struct {
	prefs     map[string]*model.Preferences
	upsertErr error
}

func newMockPreferencesRepo() *mockPreferencesRepo {
	return &mockPreferencesRepo{prefs: make(map[string]*model.Preferences)}
}

func (m *mockPreferencesRepo) Upsert(_ context.Context, p *model.Preferences) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	stored := *p
	m.prefs[p.UserID] = &stored
	return nil
}

func (m *mockPreferencesRepo) GetByUserID(_ context.Context, userID string) (*model.Preferences, error) {
	p, ok := m.prefs[userID]
	if !ok {
		return nil, apperror.NotFound("preferences", userID)
	}
	result := *p
	return &result, nil
}

// --- toggles ---

type mockToggleRepo struct {
	rows   map[string]*model.ToggleRelation // keyed by row ID
	nextID int

	findErr       error // injected into Find
	insertErr     error // injected into Insert (one-shot when insertErrOnce)
	insertErrOnce bool
	deleteErr     error // injected into Delete
}

func newMockToggleRepo() *mockToggleRepo {
	return &mockToggleRepo{rows: make(map[string]*model.ToggleRelation)}
}

func (m *mockToggleRepo) Find(_ context.Context, actorID, targetID string) (*model.ToggleRelation, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, rel := range m.rows {
		if rel.ActorID == actorID && rel.TargetID == targetID {
			result := *rel
			return &result, nil
		}
	}
	return nil, apperror.NotFound("toggle relation", actorID+"/"+targetID)
}

func (m *mockToggleRepo) Insert(_ context.Context, rel *model.ToggleRelation) error {
	if m.insertErr != nil {
		err := m.insertErr
		if m.insertErrOnce {
			m.insertErr = nil
		}
		return err
	}
	for _, existing := range m.rows {
		if existing.ActorID == rel.ActorID && existing.TargetID == rel.TargetID {
			return apperror.Conflict("toggle relation", rel.ActorID+"/"+rel.TargetID)
		}
	}
	m.nextID++
	rel.ID = fmt.Sprintf("rel-%d", m.nextID)
	rel.CreatedAt = time.Now()
	stored := *rel
	m.rows[rel.ID] = &stored
	return nil
}

func (m *mockToggleRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.rows[id]; !ok {
		return apperror.NotFound("toggle relation", id)
	}
	delete(m.rows, id)
	return nil
}

// --- donations ---

type mockDonationRepo struct {
	donations []model.Donation
	nextID    int
	createErr error
}

func newMockDonationRepo() *mockDonationRepo {
	return &mockDonationRepo{}
}

func (m *mockDonationRepo) Create(_ context.Context, d *model.Donation) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	d.ID = fmt.Sprintf("don-%d", m.nextID)
	d.CreatedAt = time.Now()
	m.donations = append(m.donations, *d)
	return nil
}

func (m *mockDonationRepo) ListByRecipient(_ context.Context, recipientID string, limit int) ([]model.Donation, error) {
	var result []model.Donation
	for i := len(m.donations) - 1; i >= 0; i-- {
		d := m.donations[i]
		if d.RecipientID == recipientID && d.PaymentStatus == model.PaymentCompleted {
			result = append(result, d)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockDonationRepo) StatsByRecipient(_ context.Context, recipientID string) (*model.DonationStats, error) {
	stats := &model.DonationStats{}
	for _, d := range m.donations {
		if d.RecipientID == recipientID && d.PaymentStatus == model.PaymentCompleted {
			stats.TotalAmount += d.Amount
			stats.DonationCount++
		}
	}
	return stats, nil
}

// --- credentials ---

type mockCredentialRepo struct {
	byEmail map[string]*model.Credential
	nextID  int
}

func newMockCredentialRepo() *mockCredentialRepo {
	return &mockCredentialRepo{byEmail: make(map[string]*model.Credential)}
}

func (m *mockCredentialRepo) Create(_ context.Context, c *model.Credential) error {
	if _, ok := m.byEmail[c.Email]; ok {
		return apperror.Conflict("credential", c.Email)
	}
	m.nextID++
	c.ID = fmt.Sprintf("cred-%d", m.nextID)
	c.CreatedAt = time.Now()
	stored := *c
	m.byEmail[c.Email] = &stored
	return nil
}

func (m *mockCredentialRepo) GetByEmail(_ context.Context, email string) (*model.Credential, error) {
	c, ok := m.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("credential", email)
	}
	result := *c
	return &result, nil
}

// --- helpers ---

// newTestProfileService wires a ProfileService with fresh mocks.
func newTestProfileService(t *testing.T) (*ProfileService, *mockProfileRepo, *mockPreferencesRepo) {
	t.Helper()
	profiles := newMockProfileRepo()
	prefs := newMockPreferencesRepo()
	svc := NewProfileService(profiles, prefs, testLogger())
	return svc, profiles, prefs
}

// compile-time interface checks for the mocks
var (
	_ repository.ProfileRepository     = (*mockProfileRepo)(nil)
	_ repository.PreferencesRepository = (*mockPreferencesRepo)(nil)
	_ repository.ToggleRepository      = (*mockToggleRepo)(nil)
	_ repository.DonationRepository    = (*mockDonationRepo)(nil)
	_ repository.CredentialRepository  = (*mockCredentialRepo)(nil)
)
