package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wingo/internal/models"
	"wingo/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Users -------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, item *models.User) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.User
	err := s.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) UserExists(ctx context.Context, username, email string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.User
	if err := s.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SetUserBalance(ctx context.Context, userID uint64, balance decimal.Decimal) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.InTx(ctx, func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		meta, _ := json.Marshal(map[string]string{"previous": user.Balance.String()})
		user.Balance = balance
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			UserID:      userID,
			Type:        models.TxTypeAdjustment,
			Amount:      balance,
			Description: "admin balance adjustment",
			Metadata:    datatypes.JSON(meta),
			CreatedAt:   time.Now().UTC(),
		}).Error
	})
}

// --- Balance moves -----------------------------------------------------------

// lockUser loads the user row under FOR UPDATE so concurrent debits and
// credits on the same balance serialize.
func lockUser(tx *gorm.DB, userID uint64) (*models.User, error) {
	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) Credit(ctx context.Context, userID uint64, amount decimal.Decimal, txType, referenceID, description string) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var newBalance decimal.Decimal
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		user.Balance = user.Balance.Add(amount)
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		newBalance = user.Balance
		return tx.Create(&models.Transaction{
			UserID:      userID,
			Type:        txType,
			Amount:      amount,
			ReferenceID: referenceID,
			Description: description,
			CreatedAt:   time.Now().UTC(),
		}).Error
	})
	return newBalance, err
}

func (s *Store) Debit(ctx context.Context, userID uint64, amount decimal.Decimal, txType, referenceID, description string) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var newBalance decimal.Decimal
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		user, err := lockUser(tx, userID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(amount) {
			return repository.ErrInsufficientBalance
		}
		user.Balance = user.Balance.Sub(amount)
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		newBalance = user.Balance
		return tx.Create(&models.Transaction{
			UserID:      userID,
			Type:        txType,
			Amount:      amount,
			ReferenceID: referenceID,
			Description: description,
			CreatedAt:   time.Now().UTC(),
		}).Error
	})
	return newBalance, err
}

// --- Bets --------------------------------------------------------------------

func (s *Store) CreateBet(ctx context.Context, item *models.Bet) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListUnsettledBetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Bet
	err := s.db.WithContext(ctx).
		Where("period = ? AND settled = ?", period, false).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSettledBetsByPeriod(ctx context.Context, period int64) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Bet{}).
		Where("period = ? AND settled = ?", period, true).
		Count(&count).Error
	return count, err
}

func (s *Store) ListBetsByUser(ctx context.Context, userID uint64, limit int) ([]models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var items []models.Bet
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListBetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Bet
	err := s.db.WithContext(ctx).
		Where("period = ?", period).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListUnsettledPeriods(ctx context.Context, before int64) ([]int64, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var periods []int64
	err := s.db.WithContext(ctx).Model(&models.Bet{}).
		Distinct("period").
		Where("settled = ? AND period < ?", false, before).
		Order("period asc").
		Pluck("period", &periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}

// --- Settlement --------------------------------------------------------------

func settleBetTx(tx *gorm.DB, betID uint64, isWinning bool, payout decimal.Decimal) error {
	now := time.Now().UTC()
	res := tx.Model(&models.Bet{}).
		Where("id = ? AND settled = ?", betID, false).
		Updates(map[string]any{
			"settled":    true,
			"is_winning": isWinning,
			"payout":     payout,
			"settled_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrBetSettled
	}
	return nil
}

func (s *Store) SettleLosingBet(ctx context.Context, betID uint64) error {
	if s == nil || s.db == nil {
		return nil
	}
	return settleBetTx(s.db.WithContext(ctx), betID, false, decimal.Zero)
}

func (s *Store) SettleWinningBet(ctx context.Context, betID uint64, payout decimal.Decimal) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var newBalance decimal.Decimal
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		var bet models.Bet
		if err := tx.First(&bet, betID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}
		if err := settleBetTx(tx, betID, true, payout); err != nil {
			return err
		}
		user, err := lockUser(tx, bet.UserID)
		if err != nil {
			return err
		}
		user.Balance = user.Balance.Add(payout)
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		newBalance = user.Balance
		return tx.Create(&models.Transaction{
			UserID:      bet.UserID,
			Type:        models.TxTypeWin,
			Amount:      payout,
			ReferenceID: betRef(bet.ID),
			Description: "winning bet payout",
			CreatedAt:   time.Now().UTC(),
		}).Error
	})
	return newBalance, err
}

func betRef(id uint64) string {
	return "bet:" + strconv.FormatUint(id, 10)
}

// --- Results -----------------------------------------------------------------

func (s *Store) InsertResult(ctx context.Context, item *models.GameResult) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	err := s.db.WithContext(ctx).Create(item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(err.Error(), "duplicate key value") {
			return repository.ErrDuplicateResult
		}
		return err
	}
	return nil
}

func (s *Store) GetResultByPeriod(ctx context.Context, period int64) (*models.GameResult, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.GameResult
	err := s.db.WithContext(ctx).Where("period = ?", period).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListRecentResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 10
	}
	var items []models.GameResult
	err := s.db.WithContext(ctx).
		Order("period desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) TrimResults(ctx context.Context, keep int) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if keep <= 0 {
		return 0, nil
	}
	var cutoff models.GameResult
	err := s.db.WithContext(ctx).
		Order("period desc").
		Offset(keep).
		First(&cutoff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	res := s.db.WithContext(ctx).
		Where("period <= ?", cutoff.Period).
		Delete(&models.GameResult{})
	return res.RowsAffected, res.Error
}

// --- Ledger history ----------------------------------------------------------

func (s *Store) ListTransactionsByUser(ctx context.Context, userID uint64, limit int) ([]models.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var items []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Deposits ----------------------------------------------------------------

func (s *Store) CreateDepositRequest(ctx context.Context, item *models.DepositRequest) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetDepositRequestByID(ctx context.Context, id uint64) (*models.DepositRequest, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.DepositRequest
	err := s.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) AttachDepositProof(ctx context.Context, id uint64, userID uint64, proof string) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.DepositRequest{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, models.DepositStatusPendingPayment).
		Updates(map[string]any{
			"proof":  proof,
			"status": models.DepositStatusPending,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) ListDepositRequests(ctx context.Context, status string) ([]models.DepositRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.DepositRequest{})
	if strings.TrimSpace(status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(status))
	}
	var items []models.DepositRequest
	if err := query.Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListDepositRequestsByUser(ctx context.Context, userID uint64) ([]models.DepositRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.DepositRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountUserDepositsSince(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.DepositRequest{}).
		Where("user_id = ? AND created_at >= ? AND status NOT IN ?", userID, since,
			[]string{models.DepositStatusRejected, models.DepositStatusExpired}).
		Count(&count).Error
	return count, err
}

func (s *Store) VerifyDepositRequest(ctx context.Context, id uint64) (*models.DepositRequest, decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return nil, decimal.Zero, repository.ErrNotFound
	}
	var req models.DepositRequest
	var newBalance decimal.Decimal
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}
		if req.Status != models.DepositStatusPending {
			return repository.ErrInvalidStatus
		}
		now := time.Now().UTC()
		req.Status = models.DepositStatusVerified
		req.ProcessedAt = &now
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		user, err := lockUser(tx, req.UserID)
		if err != nil {
			return err
		}
		user.Balance = user.Balance.Add(req.Amount)
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		newBalance = user.Balance
		return tx.Create(&models.Transaction{
			UserID:      req.UserID,
			Type:        models.TxTypeDeposit,
			Amount:      req.Amount,
			ReferenceID: req.OrderNumber,
			Description: "deposit verified",
			CreatedAt:   now,
		}).Error
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return &req, newBalance, nil
}

func (s *Store) RejectDepositRequest(ctx context.Context, id uint64) (*models.DepositRequest, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var req models.DepositRequest
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}
		if req.Status != models.DepositStatusPending && req.Status != models.DepositStatusPendingPayment {
			return repository.ErrInvalidStatus
		}
		now := time.Now().UTC()
		req.Status = models.DepositStatusRejected
		req.ProcessedAt = &now
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) ExpireStaleDepositRequests(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&models.DepositRequest{}).
		Where("status = ? AND created_at < ?", models.DepositStatusPendingPayment, before).
		Update("status", models.DepositStatusExpired)
	return res.RowsAffected, res.Error
}

// --- Withdrawals -------------------------------------------------------------

func (s *Store) CreateWithdrawalRequest(ctx context.Context, item *models.WithdrawalRequest) (decimal.Decimal, error) {
	if s == nil || s.db == nil || item == nil {
		return decimal.Zero, nil
	}
	var newBalance decimal.Decimal
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		user, err := lockUser(tx, item.UserID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(item.Amount) {
			return repository.ErrInsufficientBalance
		}
		user.Balance = user.Balance.Sub(item.Amount)
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		newBalance = user.Balance
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return tx.Create(&models.Transaction{
			UserID:      item.UserID,
			Type:        models.TxTypeWithdrawal,
			Amount:      item.Amount,
			ReferenceID: withdrawalRef(item.ID),
			Description: "withdrawal requested",
			CreatedAt:   time.Now().UTC(),
		}).Error
	})
	return newBalance, err
}

func withdrawalRef(id uint64) string {
	return "wd:" + strconv.FormatUint(id, 10)
}

func (s *Store) GetWithdrawalRequestByID(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.WithdrawalRequest
	err := s.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListWithdrawalRequests(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{})
	if strings.TrimSpace(status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(status))
	}
	var items []models.WithdrawalRequest
	if err := query.Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListWithdrawalRequestsByUser(ctx context.Context, userID uint64) ([]models.WithdrawalRequest, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.WithdrawalRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountUserWithdrawalsSince(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.WithdrawalRequest{}).
		Where("user_id = ? AND created_at >= ? AND status != ?", userID, since, models.WithdrawalStatusRejected).
		Count(&count).Error
	return count, err
}

func (s *Store) ApproveWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	return s.transitionWithdrawal(ctx, id, models.WithdrawalStatusPending, models.WithdrawalStatusApproved)
}

func (s *Store) ProcessWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	return s.transitionWithdrawal(ctx, id, models.WithdrawalStatusApproved, models.WithdrawalStatusProcessed)
}

func (s *Store) transitionWithdrawal(ctx context.Context, id uint64, from, to string) (*models.WithdrawalRequest, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var req models.WithdrawalRequest
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}
		if req.Status != from {
			return repository.ErrInvalidStatus
		}
		now := time.Now().UTC()
		req.Status = to
		req.ProcessedAt = &now
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) RejectWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return nil, decimal.Zero, repository.ErrNotFound
	}
	var req models.WithdrawalRequest
	var newBalance decimal.Decimal
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&req, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrNotFound
			}
			return err
		}
		if req.Status != models.WithdrawalStatusPending && req.Status != models.WithdrawalStatusApproved {
			return repository.ErrInvalidStatus
		}
		now := time.Now().UTC()
		req.Status = models.WithdrawalStatusRejected
		req.ProcessedAt = &now
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		user, err := lockUser(tx, req.UserID)
		if err != nil {
			return err
		}
		user.Balance = user.Balance.Add(req.Amount)
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		newBalance = user.Balance
		return tx.Create(&models.Transaction{
			UserID:      req.UserID,
			Type:        models.TxTypeRefund,
			Amount:      req.Amount,
			ReferenceID: withdrawalRef(req.ID),
			Description: "withdrawal rejected, amount returned",
			CreatedAt:   now,
		}).Error
	})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return &req, newBalance, nil
}
