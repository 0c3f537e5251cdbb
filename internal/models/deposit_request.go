package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DepositStatusPendingPayment = "pending_payment"
	DepositStatusPending        = "pending"
	DepositStatusVerified       = "verified"
	DepositStatusRejected       = "rejected"
	DepositStatusExpired        = "expired"
)

type DepositRequest struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	OrderNumber string `gorm:"type:varchar(64);uniqueIndex;not null"`
	UserID      uint64 `gorm:"not null;index"`

	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	UPIID  string          `gorm:"column:upi_id;type:varchar(100)"`

	// Proof is the payment screenshot uploaded by the user; its arrival moves
	// the request from pending_payment to pending.
	Proof  string `gorm:"type:text"`
	Status string `gorm:"type:varchar(20);not null;default:'pending_payment';index"`

	CreatedAt   time.Time  `gorm:"type:timestamptz;autoCreateTime;index"`
	ProcessedAt *time.Time `gorm:"type:timestamptz"`
}

func (DepositRequest) TableName() string {
	return "deposit_requests"
}
