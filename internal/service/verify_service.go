package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"admitpredict/internal/gateway"
	"admitpredict/internal/infrastructure/lock"
	"admitpredict/internal/model"
)

var (
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrOrderUserMismatch = errors.New("payment order does not belong to this user")
	ErrPaymentConflict   = errors.New("order already completed by a different payment")
)

// Locker serializes callback processing per payment order.
type Locker interface {
	Lock(ctx context.Context, key, token string) error
	Unlock(ctx context.Context, key, token string) error
}

// VerifyService authenticates completed-payment callbacks and posts
// the purchased credits.
//
// Key guarantees:
//  1. Signature verification is constant-time; a mismatch changes no
//     state and is logged as a security event.
//  2. The created->completed order transition is exclusive, so a
//     replayed callback is a no-op and can never double-credit.
//  3. The credited amount comes from the order row, never from the
//     callback body.
type VerifyService struct {
	orders      OrderStore
	ledger      Ledger
	outbox      OutboxStore
	gw          gateway.PaymentGateway
	locker      Locker
	eventsTopic string
}

func NewVerifyService(orders OrderStore, ledger Ledger, outbox OutboxStore, gw gateway.PaymentGateway, locker Locker, eventsTopic string) *VerifyService {
	return &VerifyService{
		orders:      orders,
		ledger:      ledger,
		outbox:      outbox,
		gw:          gw,
		locker:      locker,
		eventsTopic: eventsTopic,
	}
}

type VerifyRequest struct {
	PaymentID string
	OrderID   string
	Signature string
	UserID    int64
	Credits   int64
}

type VerifyResponse struct {
	OrderID          string `json:"order_id"`
	PaymentID        string `json:"payment_id"`
	CreditsAdded     int64  `json:"credits_added"`
	Balance          int64  `json:"balance,omitempty"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
}

func (req *VerifyRequest) validate() error {
	switch {
	case req.PaymentID == "":
		return fmt.Errorf("%w: payment_id is required", ErrValidation)
	case req.OrderID == "":
		return fmt.Errorf("%w: order_id is required", ErrValidation)
	case req.Signature == "":
		return fmt.Errorf("%w: signature is required", ErrValidation)
	case req.UserID <= 0:
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	return nil
}

func (s *VerifyService) Verify(ctx context.Context, req *VerifyRequest) (*VerifyResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if !s.gw.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		log.Printf("[SECURITY] payment signature mismatch: orderID=%s paymentID=%s userID=%d",
			req.OrderID, req.PaymentID, req.UserID)
		return nil, ErrSignatureMismatch
	}

	order, err := s.orders.GetByOrderID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != req.UserID {
		return nil, ErrOrderUserMismatch
	}
	if req.Credits != 0 && req.Credits != order.RequestedCredits {
		// the order row is authoritative for the credited amount
		log.Printf("[Verify] callback credits %d differ from order %s (%d); using order value",
			req.Credits, order.OrderID, order.RequestedCredits)
	}

	if resp, done := s.checkAlreadyApplied(order, req.PaymentID); done {
		return resp, nil
	}

	// Serialize concurrent deliveries of the same callback. The guarded
	// status transition below is the correctness barrier; the lock just
	// keeps racing replays from burning gateway-window time.
	lockKey := lock.VerifyLockKey(req.OrderID)
	if err := s.locker.Lock(ctx, lockKey, req.PaymentID); err != nil {
		return nil, fmt.Errorf("acquire verification lock: %w", err)
	}
	defer s.locker.Unlock(ctx, lockKey, req.PaymentID)

	transitioned, err := s.orders.MarkCompleted(ctx, req.OrderID, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("complete payment order: %w", err)
	}
	if !transitioned {
		// lost the transition to an earlier delivery; re-read to tell
		// replay apart from a conflicting payment
		order, err = s.orders.GetByOrderID(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		if resp, done := s.checkAlreadyApplied(order, req.PaymentID); done {
			return resp, nil
		}
		return nil, ErrPaymentConflict
	}

	balance, err := s.ledger.Credit(ctx, order.UserID, order.RequestedCredits,
		model.TransactionTypeRazorpayPayment, req.PaymentID)
	if err != nil {
		// the order is completed but the credit did not post; the order
		// row carries the payment ID so reconciliation can replay it
		log.Printf("[Verify] credit posting failed after order completion: orderID=%s paymentID=%s err=%v",
			req.OrderID, req.PaymentID, err)
		return nil, fmt.Errorf("post credits for order %s: %w", req.OrderID, err)
	}

	s.stageCompletedEvent(ctx, order, req.PaymentID)

	log.Printf("[Verify] payment applied: orderID=%s paymentID=%s userID=%d credits=%d",
		req.OrderID, req.PaymentID, order.UserID, order.RequestedCredits)

	return &VerifyResponse{
		OrderID:      req.OrderID,
		PaymentID:    req.PaymentID,
		CreditsAdded: order.RequestedCredits,
		Balance:      balance,
	}, nil
}

// checkAlreadyApplied reports whether the order was already completed.
// Completion by the same payment is an idempotent success; completion
// by a different payment is a conflict the caller surfaces.
func (s *VerifyService) checkAlreadyApplied(order *model.PaymentOrder, paymentID string) (*VerifyResponse, bool) {
	if order.Status != model.OrderStatusCompleted {
		return nil, false
	}
	if order.PaymentID == paymentID {
		return &VerifyResponse{
			OrderID:          order.OrderID,
			PaymentID:        paymentID,
			CreditsAdded:     0,
			AlreadyProcessed: true,
		}, true
	}
	return nil, false
}

func (s *VerifyService) stageCompletedEvent(ctx context.Context, order *model.PaymentOrder, paymentID string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"event":      "payment.completed",
		"order_id":   order.OrderID,
		"payment_id": paymentID,
		"user_id":    order.UserID,
		"credits":    order.RequestedCredits,
		"amount":     order.Amount,
		"ts":         time.Now().UTC().Format(time.RFC3339),
	})
	msg := &model.OutboxMessage{
		MessageKey: order.OrderID,
		Topic:      s.eventsTopic,
		Payload:    string(payload),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outbox.Create(ctx, msg); err != nil {
		log.Printf("[Verify] stage event failed: orderID=%s err=%v", order.OrderID, err)
	}
}
