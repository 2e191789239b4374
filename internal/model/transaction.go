package model

import (
	"time"
)

// ============================================================================
// Transaction type constants
// ============================================================================

const (
	TransactionTypeRecharge        = "recharge"         // credit purchase
	TransactionTypeSessionBooking  = "session_booking"  // mentorship session debit
	TransactionTypePrediction      = "prediction"       // prediction unlock debit
	TransactionTypeManualRecharge  = "manual_recharge"  // ops-issued credit
	TransactionTypeRazorpayPayment = "razorpay_payment" // gateway-verified credit
)

// Fixed debit prices. Callers cannot supply these amounts, so a caller
// can never under-charge itself.
const (
	SessionBookingCredits   int64 = 50
	PredictionUnlockCredits int64 = 10
)

// ============================================================================
// Credit transaction entity
// ============================================================================

// CreditTransaction is one row of the append-only ledger log.
//
// Log design rules:
//  1. Append only. Rows are never updated or deleted, so the audit trail
//     stays replayable.
//  2. Every row carries a signed delta; the sum of a user's deltas must
//     reconcile against users.credits.
//  3. Gateway-backed credits carry the external payment reference.
type CreditTransaction struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TransactionNo string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	CreditsDelta  int64     `gorm:"not null" json:"credits_delta"` // positive credit, negative debit
	Type          string    `gorm:"type:varchar(32);not null" json:"type"`
	PaymentID     string    `gorm:"type:varchar(64);index" json:"payment_id,omitempty"` // external gateway reference
	Remark        string    `gorm:"type:varchar(256)" json:"remark"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
