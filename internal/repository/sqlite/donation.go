package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/xid"

	"github.com/genorama/genorama/internal/apperror"
	"github.com/genorama/genorama/internal/model"
	"github.com/genorama/genorama/internal/repository"
)

var _ repository.DonationRepository = (*DonationStore)(nil)

// DonationStore implements repository.DonationRepository.
// Note the interface has no update or delete — the ledger is append-only by
// construction, not just by convention.
type DonationStore struct {
	db *DB
}

// Donations returns the donation repository backed by this database.
func (db *DB) Donations() *DonationStore {
	return &DonationStore{db: db}
}

// Create appends a donation row. An empty DonorID is stored as NULL:
// anonymous donations deliberately carry no donor reference in the row
// itself.
func (s *DonationStore) Create(ctx context.Context, donation *model.Donation) error {
	donation.ID = xid.New().String()
	donation.CreatedAt = time.Now()

	var donorID sql.NullString
	if donation.DonorID != "" {
		donorID = sql.NullString{String: donation.DonorID, Valid: true}
	}

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO donations (id, donor_id, recipient_id, amount, message,
		                        is_anonymous, payment_status, payment_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		donation.ID,
		donorID,
		donation.RecipientID,
		donation.Amount,
		donation.Message,
		donation.Anonymous,
		donation.PaymentStatus,
		donation.PaymentID,
		donation.CreatedAt,
	)
	return translateWrite("donation insert", "donation", donation.ID, err)
}

// ListByRecipient returns completed donations for a recipient, newest first.
// Donor profile summaries are joined for non-anonymous rows; anonymous rows
// come back with a nil Donor.
func (s *DonationStore) ListByRecipient(ctx context.Context, recipientID string, limit int) ([]model.Donation, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT d.id, d.donor_id, d.recipient_id, d.amount, d.message,
		        d.is_anonymous, d.payment_status, d.payment_id, d.created_at,
		        p.id, p.username, p.display_name, p.avatar_url
		 FROM donations d
		 LEFT JOIN profiles p ON p.id = d.donor_id AND d.is_anonymous = 0
		 WHERE d.recipient_id = ? AND d.payment_status = ?
		 ORDER BY d.created_at DESC
		 LIMIT ?`,
		recipientID, model.PaymentCompleted, limit,
	)
	if err != nil {
		return nil, apperror.Unavailable("donation list", err)
	}
	defer rows.Close()

	var donations []model.Donation
	for rows.Next() {
		var d model.Donation
		var donorID sql.NullString
		var pID, pUsername, pDisplayName, pAvatarURL sql.NullString
		err := rows.Scan(
			&d.ID,
			&donorID,
			&d.RecipientID,
			&d.Amount,
			&d.Message,
			&d.Anonymous,
			&d.PaymentStatus,
			&d.PaymentID,
			&d.CreatedAt,
			&pID, &pUsername, &pDisplayName, &pAvatarURL,
		)
		if err != nil {
			return nil, apperror.Unavailable("donation list scan", err)
		}
		d.DonorID = donorID.String
		if pID.Valid {
			d.Donor = &model.ProfileSummary{
				ID:          pID.String,
				Username:    pUsername.String,
				DisplayName: pDisplayName.String,
				AvatarURL:   pAvatarURL.String,
			}
		}
		donations = append(donations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Unavailable("donation list", err)
	}
	return donations, nil
}

// StatsByRecipient sums completed donations received by a profile.
func (s *DonationStore) StatsByRecipient(ctx context.Context, recipientID string) (*model.DonationStats, error) {
	var stats model.DonationStats
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0), COUNT(*)
		 FROM donations
		 WHERE recipient_id = ? AND payment_status = ?`,
		recipientID, model.PaymentCompleted,
	).Scan(&stats.TotalAmount, &stats.DonationCount)
	if err != nil {
		return nil, apperror.Unavailable("donation stats", err)
	}
	return &stats, nil
}
