package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"admitpredict/internal/gateway"
	"admitpredict/internal/model"
	"admitpredict/pkg/idgen"
)

var ErrValidation = errors.New("validation failed")

// OrderStore is the payment-order persistence the issuer and verifier
// consume.
type OrderStore interface {
	Create(ctx context.Context, order *model.PaymentOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error)
	MarkCompleted(ctx context.Context, orderID, paymentID string) (bool, error)
	MarkFailed(ctx context.Context, orderID string) (bool, error)
	GetStaleCreated(ctx context.Context, before time.Time, limit int) ([]*model.PaymentOrder, error)
	ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.PaymentOrder, int64, error)
}

// OutboxStore stages events for asynchronous Kafka delivery.
type OutboxStore interface {
	Create(ctx context.Context, msg *model.OutboxMessage) error
}

// OrderService mints payment-gateway orders for credit purchases and
// persists the pending order row the verifier later completes.
type OrderService struct {
	orders      OrderStore
	users       UserStore
	outbox      OutboxStore
	gw          gateway.PaymentGateway
	eventsTopic string
}

func NewOrderService(orders OrderStore, users UserStore, outbox OutboxStore, gw gateway.PaymentGateway, eventsTopic string) *OrderService {
	return &OrderService{
		orders:      orders,
		users:       users,
		outbox:      outbox,
		gw:          gw,
		eventsTopic: eventsTopic,
	}
}

type CreateOrderRequest struct {
	UserID     int64
	UserName   string
	UserEmail  string
	UserMobile string
	Credits    int64
	Amount     int64 // minor currency units (paise)
	BaseAmount int64
	TaxAmount  int64
}

type CreateOrderResponse struct {
	OrderID  string `json:"order_id"`
	Receipt  string `json:"receipt"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"` // publishable key for hosted checkout
}

func (req *CreateOrderRequest) validate() error {
	switch {
	case req.UserID <= 0:
		return fmt.Errorf("%w: user_id is required", ErrValidation)
	case req.UserName == "":
		return fmt.Errorf("%w: user_name is required", ErrValidation)
	case req.UserEmail == "":
		return fmt.Errorf("%w: user_email is required", ErrValidation)
	case req.UserMobile == "":
		return fmt.Errorf("%w: user_mobile is required", ErrValidation)
	case req.Credits <= 0:
		return fmt.Errorf("%w: credits must be positive", ErrValidation)
	case req.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if req.BaseAmount < 0 || req.TaxAmount < 0 {
		return fmt.Errorf("%w: amounts must not be negative", ErrValidation)
	}
	if req.BaseAmount > 0 && req.BaseAmount+req.TaxAmount != req.Amount {
		return fmt.Errorf("%w: base_amount + tax_amount must equal amount", ErrValidation)
	}
	return nil
}

// CreateOrder validates the purchase, mints a gateway order, and
// persists it in created status. No order is considered valid until the
// row exists: a gateway or persistence failure aborts the operation.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		return nil, err
	}

	baseAmount := req.BaseAmount
	if baseAmount == 0 {
		baseAmount = req.Amount
	}

	receipt := idgen.GenerateReceiptNo()

	orderID, err := s.gw.CreateOrder(ctx, req.Amount, "INR", receipt, map[string]interface{}{
		"user_id": req.UserID,
		"credits": req.Credits,
	})
	if err != nil {
		return nil, err
	}

	order := &model.PaymentOrder{
		OrderID:          orderID,
		Receipt:          receipt,
		UserID:           req.UserID,
		RequestedCredits: req.Credits,
		Amount:           req.Amount,
		BaseAmount:       baseAmount,
		TaxAmount:        req.TaxAmount,
		Status:           model.OrderStatusCreated,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("persist payment order: %w", err)
	}

	log.Printf("[Order] created: orderID=%s userID=%d credits=%d amount=%d",
		orderID, req.UserID, req.Credits, req.Amount)

	return &CreateOrderResponse{
		OrderID:  orderID,
		Receipt:  receipt,
		Amount:   req.Amount,
		Currency: "INR",
		KeyID:    s.gw.KeyID(),
	}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	return s.orders.GetByOrderID(ctx, orderID)
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID int64, page, pageSize int) ([]*model.PaymentOrder, int64, error) {
	return s.orders.ListByUserID(ctx, userID, page, pageSize)
}

// ExpireStale fails created orders older than maxAge so an abandoned or
// timed-out checkout does not sit in created status forever. Returns
// the number of orders expired.
func (s *OrderService) ExpireStale(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	before := time.Now().Add(-maxAge)
	orders, err := s.orders.GetStaleCreated(ctx, before, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, order := range orders {
		ok, err := s.orders.MarkFailed(ctx, order.OrderID)
		if err != nil {
			log.Printf("[Order] expire failed: orderID=%s err=%v", order.OrderID, err)
			continue
		}
		if !ok {
			// completed or failed concurrently, nothing to do
			continue
		}
		expired++
		s.stageEvent(ctx, order.OrderID, map[string]interface{}{
			"event":    "order.expired",
			"order_id": order.OrderID,
			"user_id":  order.UserID,
			"amount":   order.Amount,
			"ts":       time.Now().UTC().Format(time.RFC3339),
		})
	}
	return expired, nil
}

// stageEvent writes a payment event to the outbox, best-effort.
func (s *OrderService) stageEvent(ctx context.Context, key string, payload map[string]interface{}) {
	payloadBytes, _ := json.Marshal(payload)
	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      s.eventsTopic,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := s.outbox.Create(ctx, msg); err != nil {
		log.Printf("[Order] stage event failed: key=%s err=%v", key, err)
	}
}
