package repository

import (
	"context"
	"errors"

	"admitpredict/internal/model"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDuplicateEmail      = errors.New("email already registered")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// AdjustCredits applies a signed delta to a user's balance in a single
// server-side conditional update:
//
//	UPDATE users SET credits = credits + ? WHERE id = ? AND credits + ? >= 0
//
// There is no read-then-write window, so concurrent debits against the
// same user cannot jointly overdraw. Returns the balance after the
// update.
func (r *UserRepository) AdjustCredits(ctx context.Context, userID, delta int64) (int64, error) {
	var balance int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.User{}).
			Where("id = ? AND credits + ? >= 0", userID, delta).
			UpdateColumn("credits", gorm.Expr("credits + ?", delta))

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			// Either the user does not exist or the guard rejected an
			// overdraw. Distinguish the two for the caller.
			var user model.User
			if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrUserNotFound
				}
				return err
			}
			return ErrInsufficientCredits
		}

		var user model.User
		if err := tx.Select("credits").Where("id = ?", userID).First(&user).Error; err != nil {
			return err
		}
		balance = user.Credits
		return nil
	})

	if err != nil {
		return 0, err
	}
	return balance, nil
}
