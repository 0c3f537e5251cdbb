package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BetTypeColor    = "color"
	BetTypeNumber   = "number"
	BetTypeBigSmall = "big_small"
)

// Bet is an immutable wager record. It is mutated exactly once, by the
// settlement sweep of its period: Settled flips false -> true together with
// IsWinning and Payout.
type Bet struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;index"`
	Period int64  `gorm:"not null;index:idx_bets_period_settled"`

	BetType   string `gorm:"type:varchar(20);not null"`
	BetOption string `gorm:"type:varchar(20);not null"`

	Stake decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Settled   bool            `gorm:"not null;default:false;index:idx_bets_period_settled"`
	IsWinning bool            `gorm:"not null;default:false"`
	Payout    decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	PlacedAt  time.Time  `gorm:"type:timestamptz;not null;index"`
	SettledAt *time.Time `gorm:"type:timestamptz"`
}

func (Bet) TableName() string {
	return "bets"
}
