package repository

import (
	"context"

	"admitpredict/internal/model"

	"gorm.io/gorm"
)

// TransactionRepository is the append-only ledger log. Rows are never
// updated or deleted; the log is the audit ground truth the balance
// field reconciles against.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Append(ctx context.Context, trans *model.CreditTransaction) error {
	return r.db.WithContext(ctx).Create(trans).Error
}

func (r *TransactionRepository) GetByPaymentID(ctx context.Context, paymentID string) (*model.CreditTransaction, error) {
	var trans model.CreditTransaction
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&trans).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &trans, nil
}

func (r *TransactionRepository) ListByUserID(ctx context.Context, userID int64, page, pageSize int) ([]*model.CreditTransaction, int64, error) {
	var transactions []*model.CreditTransaction
	var total int64

	query := r.db.WithContext(ctx).Model(&model.CreditTransaction{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// SumDeltasByUserID replays the log for one user. Used by the
// out-of-band reconciliation tooling to check the balance cache.
func (r *TransactionRepository) SumDeltasByUserID(ctx context.Context, userID int64) (int64, error) {
	var sum int64
	err := r.db.WithContext(ctx).
		Model(&model.CreditTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(credits_delta), 0)").
		Scan(&sum).Error
	return sum, err
}
