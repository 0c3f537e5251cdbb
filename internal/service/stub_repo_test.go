package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wingo/internal/models"
	"wingo/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// Only the wallet and housekeeping paths carry real behavior.
type stubRepo struct {
	balances    map[uint64]decimal.Decimal
	deposits    map[uint64]*models.DepositRequest
	withdrawals map[uint64]*models.WithdrawalRequest
	nextID      uint64

	trimCalls   []int
	expireCalls []time.Time
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		balances:    map[uint64]decimal.Decimal{},
		deposits:    map[uint64]*models.DepositRequest{},
		withdrawals: map[uint64]*models.WithdrawalRequest{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) CreateUser(ctx context.Context, item *models.User) error { return nil }
func (s *stubRepo) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	bal, ok := s.balances[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.User{ID: id, Balance: bal}, nil
}
func (s *stubRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) UserExists(ctx context.Context, username, email string) (bool, error) {
	return false, nil
}
func (s *stubRepo) ListUsers(ctx context.Context) ([]models.User, error) { return nil, nil }
func (s *stubRepo) SetUserBalance(ctx context.Context, userID uint64, balance decimal.Decimal) error {
	s.balances[userID] = balance
	return nil
}

func (s *stubRepo) Credit(ctx context.Context, userID uint64, amount decimal.Decimal, txType, referenceID, description string) (decimal.Decimal, error) {
	next := s.balances[userID].Add(amount)
	s.balances[userID] = next
	return next, nil
}
func (s *stubRepo) Debit(ctx context.Context, userID uint64, amount decimal.Decimal, txType, referenceID, description string) (decimal.Decimal, error) {
	cur := s.balances[userID]
	if cur.LessThan(amount) {
		return decimal.Zero, repository.ErrInsufficientBalance
	}
	next := cur.Sub(amount)
	s.balances[userID] = next
	return next, nil
}

func (s *stubRepo) CreateBet(ctx context.Context, item *models.Bet) error { return nil }
func (s *stubRepo) ListUnsettledBetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error) {
	return nil, nil
}
func (s *stubRepo) CountSettledBetsByPeriod(ctx context.Context, period int64) (int64, error) {
	return 0, nil
}
func (s *stubRepo) ListBetsByUser(ctx context.Context, userID uint64, limit int) ([]models.Bet, error) {
	return nil, nil
}
func (s *stubRepo) ListBetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error) {
	return nil, nil
}
func (s *stubRepo) ListUnsettledPeriods(ctx context.Context, before int64) ([]int64, error) {
	return nil, nil
}

func (s *stubRepo) SettleLosingBet(ctx context.Context, betID uint64) error { return nil }
func (s *stubRepo) SettleWinningBet(ctx context.Context, betID uint64, payout decimal.Decimal) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (s *stubRepo) InsertResult(ctx context.Context, item *models.GameResult) error { return nil }
func (s *stubRepo) GetResultByPeriod(ctx context.Context, period int64) (*models.GameResult, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) ListRecentResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	return nil, nil
}
func (s *stubRepo) TrimResults(ctx context.Context, keep int) (int64, error) {
	s.trimCalls = append(s.trimCalls, keep)
	return 3, nil
}

func (s *stubRepo) ListTransactionsByUser(ctx context.Context, userID uint64, limit int) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubRepo) CreateDepositRequest(ctx context.Context, item *models.DepositRequest) error {
	s.nextID++
	item.ID = s.nextID
	cp := *item
	s.deposits[item.ID] = &cp
	return nil
}
func (s *stubRepo) GetDepositRequestByID(ctx context.Context, id uint64) (*models.DepositRequest, error) {
	item, ok := s.deposits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *item
	return &cp, nil
}
func (s *stubRepo) AttachDepositProof(ctx context.Context, id uint64, userID uint64, proof string) error {
	item, ok := s.deposits[id]
	if !ok || item.UserID != userID {
		return repository.ErrNotFound
	}
	if item.Status != models.DepositStatusPendingPayment {
		return repository.ErrInvalidStatus
	}
	item.Proof = proof
	item.Status = models.DepositStatusPending
	return nil
}
func (s *stubRepo) ListDepositRequests(ctx context.Context, status string) ([]models.DepositRequest, error) {
	return nil, nil
}
func (s *stubRepo) ListDepositRequestsByUser(ctx context.Context, userID uint64) ([]models.DepositRequest, error) {
	return nil, nil
}
func (s *stubRepo) CountUserDepositsSince(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	var n int64
	for _, d := range s.deposits {
		if d.UserID == userID && !d.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
func (s *stubRepo) VerifyDepositRequest(ctx context.Context, id uint64) (*models.DepositRequest, decimal.Decimal, error) {
	item, ok := s.deposits[id]
	if !ok {
		return nil, decimal.Zero, repository.ErrNotFound
	}
	if item.Status != models.DepositStatusPending {
		return nil, decimal.Zero, repository.ErrInvalidStatus
	}
	item.Status = models.DepositStatusVerified
	next := s.balances[item.UserID].Add(item.Amount)
	s.balances[item.UserID] = next
	cp := *item
	return &cp, next, nil
}
func (s *stubRepo) RejectDepositRequest(ctx context.Context, id uint64) (*models.DepositRequest, error) {
	item, ok := s.deposits[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	item.Status = models.DepositStatusRejected
	cp := *item
	return &cp, nil
}
func (s *stubRepo) ExpireStaleDepositRequests(ctx context.Context, before time.Time) (int64, error) {
	s.expireCalls = append(s.expireCalls, before)
	return 2, nil
}

func (s *stubRepo) CreateWithdrawalRequest(ctx context.Context, item *models.WithdrawalRequest) (decimal.Decimal, error) {
	cur := s.balances[item.UserID]
	if cur.LessThan(item.Amount) {
		return decimal.Zero, repository.ErrInsufficientBalance
	}
	next := cur.Sub(item.Amount)
	s.balances[item.UserID] = next
	s.nextID++
	item.ID = s.nextID
	cp := *item
	s.withdrawals[item.ID] = &cp
	return next, nil
}
func (s *stubRepo) GetWithdrawalRequestByID(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	item, ok := s.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *item
	return &cp, nil
}
func (s *stubRepo) ListWithdrawalRequests(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
	return nil, nil
}
func (s *stubRepo) ListWithdrawalRequestsByUser(ctx context.Context, userID uint64) ([]models.WithdrawalRequest, error) {
	return nil, nil
}
func (s *stubRepo) CountUserWithdrawalsSince(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	var n int64
	for _, w := range s.withdrawals {
		if w.UserID == userID && !w.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
func (s *stubRepo) ApproveWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	item, ok := s.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if item.Status != models.WithdrawalStatusPending {
		return nil, repository.ErrInvalidStatus
	}
	item.Status = models.WithdrawalStatusApproved
	cp := *item
	return &cp, nil
}
func (s *stubRepo) ProcessWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	item, ok := s.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if item.Status != models.WithdrawalStatusApproved {
		return nil, repository.ErrInvalidStatus
	}
	item.Status = models.WithdrawalStatusProcessed
	cp := *item
	return &cp, nil
}
func (s *stubRepo) RejectWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, decimal.Decimal, error) {
	item, ok := s.withdrawals[id]
	if !ok {
		return nil, decimal.Zero, repository.ErrNotFound
	}
	if item.Status == models.WithdrawalStatusProcessed || item.Status == models.WithdrawalStatusRejected {
		return nil, decimal.Zero, repository.ErrInvalidStatus
	}
	item.Status = models.WithdrawalStatusRejected
	next := s.balances[item.UserID].Add(item.Amount)
	s.balances[item.UserID] = next
	cp := *item
	return &cp, next, nil
}

var _ repository.Repository = (*stubRepo)(nil)
