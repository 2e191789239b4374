package service

import (
	"context"

	"admitpredict/internal/model"
)

// BookingService charges the fixed-price debits: mentorship session
// bookings and prediction unlocks. The amounts are package constants,
// never caller input, so a caller cannot under-charge itself. All
// balance rules (no overdraft, audit logging) come from the ledger.
type BookingService struct {
	ledger Ledger
}

func NewBookingService(ledger Ledger) *BookingService {
	return &BookingService{ledger: ledger}
}

// BookSession debits the session price and returns the new balance.
func (s *BookingService) BookSession(ctx context.Context, userID int64) (int64, error) {
	return s.ledger.Debit(ctx, userID, model.SessionBookingCredits, model.TransactionTypeSessionBooking)
}

// UnlockPrediction debits the prediction-unlock price and returns the
// new balance.
func (s *BookingService) UnlockPrediction(ctx context.Context, userID int64) (int64, error) {
	return s.ledger.Debit(ctx, userID, model.PredictionUnlockCredits, model.TransactionTypePrediction)
}
