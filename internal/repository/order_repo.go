package repository

import (
	"context"
	"errors"
	"time"

	"admitpredict/internal/model"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound      = errors.New("payment order not found")
	ErrOrderStatusInvalid = errors.New("payment order status does not allow this transition")
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *model.PaymentOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*model.PaymentOrder, error) {
	var order model.PaymentOrder
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// MarkCompleted performs the single legal created->completed transition
// and records the gateway payment ID. The WHERE clause on the current
// status makes the transition exclusive: a replayed callback finds zero
// rows to update and reports false with no error.
func (r *OrderRepository) MarkCompleted(ctx context.Context, orderID, paymentID string) (bool, error) {
	if !model.CanTransitionTo(model.OrderStatusCreated, model.OrderStatusCompleted) {
		return false, ErrOrderStatusInvalid
	}

	result := r.db.WithContext(ctx).
		Model(&model.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderID, model.OrderStatusCreated).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusCompleted,
			"payment_id": paymentID,
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkFailed moves a created order to failed, used by the stale-order
// sweep. Same guarded-transition shape as MarkCompleted.
func (r *OrderRepository) MarkFailed(ctx context.Context, orderID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.PaymentOrder{}).
		Where("order_id = ? AND status = ?", orderID, model.OrderStatusCreated).
		Update("status", model.OrderStatusFailed)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetStaleCreated lists orders still in created status that were minted
// before the cutoff time.
func (r *OrderRepository) GetStaleCreated(ctx context.Context, before time.Time, limit int) ([]*model.PaymentOrder, error) {
	var orders []*model.PaymentOrder
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.OrderStatusCreated, before).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.PaymentOrder, int64, error) {
	var orders []*model.PaymentOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&model.PaymentOrder{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error

	return orders, total, err
}
