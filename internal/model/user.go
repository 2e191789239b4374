package model

import (
	"time"
)

// User holds the credit balance spent on predictions and bookings.
// The balance is the fast-path cache; the transaction log is the audit
// ground truth.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Email     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Mobile    string    `gorm:"type:varchar(20);not null" json:"mobile"`
	Credits   int64     `gorm:"not null;default:0" json:"credits"` // never below zero; mutated only through the ledger
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
