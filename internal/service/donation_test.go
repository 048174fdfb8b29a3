package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
)

func newTestDonationService(t *testing.T) (*DonationService, *mockDonationRepo, *mockProfileRepo) {
	t.Helper()
	donations := newMockDonationRepo()
	profiles := newMockProfileRepo()
	profiles.profiles["band-1"] = &model.Profile{ID: "band-1", Username: "theband", IsBand: true}
	svc := NewDonationService(donations, profiles, testLogger())
	return svc, donations, profiles
}

func TestRecord_Success(t *testing.T) {
	svc, repo, _ := newTestDonationService(t)

	d, err := svc.Record(context.Background(), "user-1", "band-1", 25.0, "great set!", false)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if d.ID == "" {
		t.Error("expected donation to have an ID")
	}
	if d.DonorID != "user-1" {
		t.Errorf("DonorID = %q, want user-1", d.DonorID)
	}
	if d.PaymentStatus != model.PaymentCompleted {
		t.Errorf("PaymentStatus = %q, want %q", d.PaymentStatus, model.PaymentCompleted)
	}
	if !strings.HasPrefix(d.PaymentID, "payment_") {
		t.Errorf("PaymentID = %q, want payment_ correlation prefix", d.PaymentID)
	}
	if len(repo.donations) != 1 {
		t.Errorf("ledger rows = %d, want 1", len(repo.donations))
	}
}

// Anonymity nulls the stored donor reference but the actor must still be
// logged in.
func TestRecord_Anonymous(t *testing.T) {
	svc, repo, _ := newTestDonationService(t)

	d, err := svc.Record(context.Background(), "user-1", "band-1", 10.0, "", true)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if d.DonorID != "" {
		t.Errorf("DonorID = %q, want empty for anonymous donation", d.DonorID)
	}
	if !d.Anonymous {
		t.Error("Anonymous flag not set")
	}
	if len(repo.donations) != 1 {
		t.Errorf("ledger rows = %d, want 1", len(repo.donations))
	}
}

func TestRecord_AnonymousStillRequiresLogin(t *testing.T) {
	svc, _, _ := newTestDonationService(t)

	_, err := svc.Record(context.Background(), "", "band-1", 10.0, "", true)
	if !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Errorf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestRecord_RejectsNonPositiveAmounts(t *testing.T) {
	svc, repo, _ := newTestDonationService(t)

	for _, amount := range []float64{0, -1, -0.01} {
		_, err := svc.Record(context.Background(), "user-1", "band-1", amount, "", false)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Record(amount=%v) error = %v, want ErrValidation", amount, err)
		}
	}
	if len(repo.donations) != 0 {
		t.Errorf("ledger rows = %d, want 0 after rejected donations", len(repo.donations))
	}
}

func TestRecord_UnknownRecipient(t *testing.T) {
	svc, _, _ := newTestDonationService(t)

	_, err := svc.Record(context.Background(), "user-1", "nobody", 10.0, "", false)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRecord_StoreFailurePropagates(t *testing.T) {
	svc, repo, _ := newTestDonationService(t)

	repo.createErr = apperror.Unavailable("donation insert", errors.New("store down"))

	_, err := svc.Record(context.Background(), "user-1", "band-1", 10.0, "", false)
	if !errors.Is(err, apperror.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestStats_SumsCompletedDonations(t *testing.T) {
	svc, _, _ := newTestDonationService(t)
	ctx := context.Background()

	amounts := []float64{5, 10, 2.5}
	for _, a := range amounts {
		if _, err := svc.Record(ctx, "user-1", "band-1", a, "", false); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	stats, err := svc.Stats(ctx, "band-1")
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.DonationCount != 3 {
		t.Errorf("DonationCount = %d, want 3", stats.DonationCount)
	}
	if stats.TotalAmount != 17.5 {
		t.Errorf("TotalAmount = %v, want 17.5", stats.TotalAmount)
	}
}

func TestListForRecipient_NewestFirst(t *testing.T) {
	svc, _, _ := newTestDonationService(t)
	ctx := context.Background()

	if _, err := svc.Record(ctx, "user-1", "band-1", 1, "first", false); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := svc.Record(ctx, "user-2", "band-1", 2, "second", true); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	list, err := svc.ListForRecipient(ctx, "band-1", 0)
	if err != nil {
		t.Fatalf("ListForRecipient() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].Message != "second" {
		t.Errorf("first item message = %q, want newest first", list[0].Message)
	}
	if list[0].DonorID != "" {
		t.Errorf("anonymous donation leaked donor ID %q", list[0].DonorID)
	}
}
