package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypeBet        = "bet"
	TxTypeWin        = "win"
	TxTypeRefund     = "refund"
	TxTypeAdjustment = "adjustment"
	TxTypeBonus      = "bonus"
)

// Transaction is the append-only ledger entry behind every balance move.
// A stake produces one "bet" entry at placement; a winning settlement
// produces one "win" entry. Losing bets get no second entry.
type Transaction struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`

	Type   string          `gorm:"type:varchar(20);not null;index"`
	Amount decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	ReferenceID string         `gorm:"type:varchar(64);index"`
	Description string         `gorm:"type:text"`
	Metadata    datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (Transaction) TableName() string {
	return "transactions"
}
