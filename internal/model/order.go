package model

import (
	"time"
)

const (
	OrderStatusCreated   = "created"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// ValidStatusTransitions encodes the single legal path of a payment order.
// completed and failed are terminal; the guarded created->completed
// transition is the idempotency barrier for payment callbacks.
var ValidStatusTransitions = map[string][]string{
	OrderStatusCreated: {OrderStatusCompleted, OrderStatusFailed},
}

func CanTransitionTo(currentStatus, targetStatus string) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// PaymentOrder tracks a credit purchase minted at the payment gateway.
// Created in "created" status before the buyer is sent to checkout;
// moved to "completed" exactly once by the payment verifier.
type PaymentOrder struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID          string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_id"` // gateway order ID
	Receipt          string    `gorm:"type:varchar(40);uniqueIndex;not null" json:"receipt"`
	UserID           int64     `gorm:"index;not null" json:"user_id"`
	RequestedCredits int64     `gorm:"not null" json:"requested_credits"`
	Amount           int64     `gorm:"not null" json:"amount"` // minor currency units (paise)
	BaseAmount       int64     `gorm:"not null" json:"base_amount"`
	TaxAmount        int64     `gorm:"not null" json:"tax_amount"`
	Status           string    `gorm:"type:varchar(20);index;not null" json:"status"`
	PaymentID        string    `gorm:"type:varchar(64);index" json:"payment_id,omitempty"` // set on completion
	CreatedAt        time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}
