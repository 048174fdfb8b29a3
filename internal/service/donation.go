package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

// MaxDonationMessage caps the length of the message attached to a donation.
const MaxDonationMessage = 500

// DonationService writes and reads the append-only donation ledger.
//
// The payment boundary is a stub: no gateway is integrated, so Record mints
// a correlation ID locally and writes the row directly as completed. Rows
// are never updated or deleted.
type DonationService struct {
	donations repository.DonationRepository
	profiles  repository.ProfileRepository
	logger    *slog.Logger
}

func NewDonationService(
	donations repository.DonationRepository,
	profiles repository.ProfileRepository,
	logger *slog.Logger,
) *DonationService {
	return &DonationService{
		donations: donations,
		profiles:  profiles,
		logger:    logger,
	}
}

// Record appends one donation from actorID to recipientID.
//
// The actor must be authenticated even for anonymous donations — anonymity
// hides the recipient-facing attribution, not the login requirement. An
// anonymous row simply stores no donor reference.
func (s *DonationService) Record(
	ctx context.Context,
	actorID, recipientID string,
	amount float64,
	message string,
	anonymous bool,
) (*model.Donation, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated("login required to donate")
	}
	if recipientID == "" {
		return nil, apperror.ValidationFailed("recipientId", "recipient is required")
	}
	if amount <= 0 {
		return nil, apperror.ValidationFailed("amount", "donation amount must be greater than zero")
	}
	message = strings.TrimSpace(message)
	if len(message) > MaxDonationMessage {
		return nil, apperror.ValidationFailed("message",
			fmt.Sprintf("message must be %d characters or less", MaxDonationMessage))
	}

	// The recipient must exist; a missing profile surfaces as NotFound.
	if _, err := s.profiles.GetByID(ctx, recipientID); err != nil {
		return nil, fmt.Errorf("looking up donation recipient %s: %w", recipientID, err)
	}

	donorID := actorID
	if anonymous {
		donorID = ""
	}

	donation := &model.Donation{
		DonorID:       donorID,
		RecipientID:   recipientID,
		Amount:        amount,
		Message:       message,
		Anonymous:     anonymous,
		PaymentStatus: model.PaymentCompleted,
		PaymentID:     "payment_" + uuid.NewString(),
	}

	if err := s.donations.Create(ctx, donation); err != nil {
		s.logger.Error("failed to record donation",
			slog.String("recipientID", recipientID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("recording donation: %w", err)
	}

	s.logger.Info("donation recorded",
		slog.String("id", donation.ID),
		slog.String("recipientID", recipientID),
		slog.Float64("amount", amount),
		slog.Bool("anonymous", anonymous),
	)

	return donation, nil
}

// ListForRecipient returns completed donations received by a profile,
// newest first.
func (s *DonationService) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]model.Donation, error) {
	if recipientID == "" {
		return nil, apperror.ValidationFailed("recipientId", "recipient is required")
	}
	return s.donations.ListByRecipient(ctx, recipientID, clampLimit(limit))
}

// Stats returns the completed-donation totals for a profile.
func (s *DonationService) Stats(ctx context.Context, recipientID string) (*model.DonationStats, error) {
	if recipientID == "" {
		return nil, apperror.ValidationFailed("recipientId", "recipient is required")
	}
	return s.donations.StatsByRecipient(ctx, recipientID)
}
