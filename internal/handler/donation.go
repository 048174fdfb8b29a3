package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/genorama/genorama/internal/auth"
	"github.com/genorama/genorama/internal/service"
)

// DonationHandler serves the donation ledger endpoints.
type DonationHandler struct {
	donations *service.DonationService
	logger    *slog.Logger
}

func NewDonationHandler(donations *service.DonationService, logger *slog.Logger) *DonationHandler {
	return &DonationHandler{
		donations: donations,
		logger:    logger,
	}
}

// HandleRecord records a donation from the signed-in user to a profile.
//
// HTTP: POST /api/donations (RequireAuth)
// Body: {"recipientId": "...", "amount": 25, "message": "...", "anonymous": false}
//
// Login is required even for anonymous donations; anonymity only hides the
// donor from the recipient-facing view.
func (h *DonationHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		RecipientID string  `json:"recipientId"`
		Amount      float64 `json:"amount"`
		Message     string  `json:"message"`
		Anonymous   bool    `json:"anonymous"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	donation, err := h.donations.Record(r.Context(), userID, req.RecipientID, req.Amount, req.Message, req.Anonymous)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, donation)
}

// HandleListForRecipient returns completed donations received by a profile.
//
// HTTP: GET /api/profiles/{id}/donations
func (h *DonationHandler) HandleListForRecipient(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	donations, err := h.donations.ListForRecipient(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, donations)
}

// HandleStats returns donation totals for a profile.
//
// HTTP: GET /api/profiles/{id}/donations/stats
func (h *DonationHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.donations.Stats(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
