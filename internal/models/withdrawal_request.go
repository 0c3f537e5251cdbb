package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusProcessed = "processed"
	WithdrawalStatusRejected  = "rejected"
)

// WithdrawalRequest debits the user's balance at creation time; a rejection
// refunds it, approval and processing only move the status forward.
type WithdrawalRequest struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`

	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	UPIID  string          `gorm:"column:upi_id;type:varchar(100);not null"`

	Status string `gorm:"type:varchar(20);not null;default:'pending';index"`

	CreatedAt   time.Time  `gorm:"type:timestamptz;autoCreateTime;index"`
	ProcessedAt *time.Time `gorm:"type:timestamptz"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
