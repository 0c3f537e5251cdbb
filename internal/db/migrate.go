package db

import (
	"wingo/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.Bet{},
		&models.GameResult{},
		&models.Transaction{},
		&models.DepositRequest{},
		&models.WithdrawalRequest{},
	)
}
