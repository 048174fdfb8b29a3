package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/auth"
	"github.com/genorama/genorama/internal/handler"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/service"
)

// fakeProfileRepo knows one band profile; that's all the donation endpoint
// needs.
type fakeProfileRepo struct{}

func (fakeProfileRepo) Upsert(context.Context, *model.Profile) error { return nil }
func (fakeProfileRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	if id != "band-1" {
		return nil, apperror.NotFound("profile", id)
	}
	return &model.Profile{ID: "band-1", Username: "theband", IsBand: true}, nil
}
func (fakeProfileRepo) GetByUsername(_ context.Context, username string) (*model.Profile, error) {
	return nil, apperror.NotFound("profile", username)
}
func (fakeProfileRepo) SearchBands(context.Context, string, int) ([]model.Profile, error) {
	return nil, nil
}
func (fakeProfileRepo) UpdateSettings(context.Context, *model.Profile) error { return nil }

type fakeDonationRepo struct {
	donations []model.Donation
	createErr error
}

func (f *fakeDonationRepo) Create(_ context.Context, d *model.Donation) error {
	if f.createErr != nil {
		return f.createErr
	}
	d.ID = "don-1"
	f.donations = append(f.donations, *d)
	return nil
}

func (f *fakeDonationRepo) ListByRecipient(_ context.Context, recipientID string, _ int) ([]model.Donation, error) {
	var out []model.Donation
	for _, d := range f.donations {
		if d.RecipientID == recipientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDonationRepo) StatsByRecipient(_ context.Context, recipientID string) (*model.DonationStats, error) {
	stats := &model.DonationStats{}
	for _, d := range f.donations {
		if d.RecipientID == recipientID {
			stats.TotalAmount += d.Amount
			stats.DonationCount++
		}
	}
	return stats, nil
}

func newDonationTestServer(t *testing.T, repo *fakeDonationRepo) (http.Handler, *auth.TokenService) {
	t.Helper()
	logger := testLogger()
	tokens := testTokens(t)

	svc := service.NewDonationService(repo, fakeProfileRepo{}, logger)
	h := handler.NewDonationHandler(svc, logger)

	mux := http.NewServeMux()
	mux.Handle("POST /api/donations", auth.RequireAuth(tokens)(http.HandlerFunc(h.HandleRecord)))
	mux.HandleFunc("GET /api/profiles/{id}/donations/stats", h.HandleStats)
	return mux, tokens
}

func TestHandleRecordDonation(t *testing.T) {
	t.Run("valid donation", func(t *testing.T) {
		repo := &fakeDonationRepo{}
		srv, tokens := newDonationTestServer(t, repo)

		body := `{"recipientId":"band-1","amount":25,"message":"great set!","anonymous":false}`
		req := httptest.NewRequest(http.MethodPost, "/api/donations", bytes.NewBufferString(body))
		req = authedRequest(t, tokens, req, "user-1")
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var d model.Donation
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&d))
		assert.Equal(t, "user-1", d.DonorID)
		assert.Equal(t, model.PaymentCompleted, d.PaymentStatus)
		assert.True(t, strings.HasPrefix(d.PaymentID, "payment_"))
		assert.Len(t, repo.donations, 1)
	})

	t.Run("anonymous donation stores no donor", func(t *testing.T) {
		repo := &fakeDonationRepo{}
		srv, tokens := newDonationTestServer(t, repo)

		body := `{"recipientId":"band-1","amount":10,"message":"","anonymous":true}`
		req := httptest.NewRequest(http.MethodPost, "/api/donations", bytes.NewBufferString(body))
		req = authedRequest(t, tokens, req, "user-1")
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var d model.Donation
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&d))
		assert.Empty(t, d.DonorID)
		assert.True(t, d.Anonymous)
	})

	t.Run("anonymous request gets 401 even with anonymous flag", func(t *testing.T) {
		srv, _ := newDonationTestServer(t, &fakeDonationRepo{})

		body := `{"recipientId":"band-1","amount":10,"anonymous":true}`
		req := httptest.NewRequest(http.MethodPost, "/api/donations", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("zero amount gets 400", func(t *testing.T) {
		repo := &fakeDonationRepo{}
		srv, tokens := newDonationTestServer(t, repo)

		body := `{"recipientId":"band-1","amount":0}`
		req := httptest.NewRequest(http.MethodPost, "/api/donations", bytes.NewBufferString(body))
		req = authedRequest(t, tokens, req, "user-1")
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Empty(t, repo.donations)
	})

	t.Run("store outage gets 503", func(t *testing.T) {
		srv, tokens := newDonationTestServer(t, &fakeDonationRepo{
			createErr: apperror.Unavailable("donation insert", assert.AnError),
		})

		body := `{"recipientId":"band-1","amount":10}`
		req := httptest.NewRequest(http.MethodPost, "/api/donations", bytes.NewBufferString(body))
		req = authedRequest(t, tokens, req, "user-1")
		rr := httptest.NewRecorder()
		srv.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestHandleDonationStats(t *testing.T) {
	repo := &fakeDonationRepo{donations: []model.Donation{
		{RecipientID: "band-1", Amount: 5, PaymentStatus: model.PaymentCompleted},
		{RecipientID: "band-1", Amount: 12.5, PaymentStatus: model.PaymentCompleted},
	}}
	srv, _ := newDonationTestServer(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/profiles/band-1/donations/stats", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var stats model.DonationStats
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	assert.Equal(t, 2, stats.DonationCount)
	assert.Equal(t, 17.5, stats.TotalAmount)
}
