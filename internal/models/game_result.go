package models

import "time"

const (
	ColorGreen  = "green"
	ColorRed    = "red"
	ColorViolet = "violet"

	SizeBig   = "big"
	SizeSmall = "small"
)

// GameResult is the outcome of one closed period. The unique index on Period
// is the guard against double-processing a rollover: a second insert for the
// same period fails instead of overwriting.
type GameResult struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	Period int64  `gorm:"not null;uniqueIndex"`

	WinningNumber int    `gorm:"not null"`
	Color         string `gorm:"type:varchar(10);not null"`
	Size          string `gorm:"type:varchar(10);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (GameResult) TableName() string {
	return "game_results"
}
