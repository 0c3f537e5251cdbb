package game

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wingo/internal/models"
	"wingo/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It implements the full interface but only the bet, result and settlement
// paths carry real behavior; the rest return zero values.
type stubRepo struct {
	mu       sync.Mutex
	balances map[uint64]decimal.Decimal
	bets     map[uint64]*models.Bet
	results  map[int64]*models.GameResult
	txs      []models.Transaction
	nextBet  uint64

	failSettle map[uint64]error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		balances:   map[uint64]decimal.Decimal{},
		bets:       map[uint64]*models.Bet{},
		results:    map[int64]*models.GameResult{},
		failSettle: map[uint64]error{},
	}
}

func (s *stubRepo) addBet(userID uint64, period int64, betType, option, stake string) *models.Bet {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBet++
	bet := &models.Bet{
		ID:        s.nextBet,
		UserID:    userID,
		Period:    period,
		BetType:   betType,
		BetOption: option,
		Stake:     decimal.RequireFromString(stake),
		PlacedAt:  time.Now().UTC(),
	}
	s.bets[bet.ID] = bet
	return bet
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) CreateUser(ctx context.Context, item *models.User) error { return nil }
func (s *stubRepo) GetUserByID(ctx context.Context, id uint64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = balance
	return nil
}

func (s *stubRepo) Credit(ctx context.Context, userID uint64, amount decimal.Decimal, txType, referenceID, description string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.balances[userID].Add(amount)
	s.balances[userID] = next
	s.txs = append(s.txs, models.Transaction{UserID: userID, Type: txType, Amount: amount})
	return next, nil
}

func (s *stubRepo) Debit(ctx context.Context, userID uint64, amount decimal.Decimal, txType, referenceID, description string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.balances[userID]
	if cur.LessThan(amount) {
		return decimal.Zero, repository.ErrInsufficientBalance
	}
	next := cur.Sub(amount)
	s.balances[userID] = next
	s.txs = append(s.txs, models.Transaction{UserID: userID, Type: txType, Amount: amount.Neg()})
	return next, nil
}

func (s *stubRepo) CreateBet(ctx context.Context, item *models.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBet++
	item.ID = s.nextBet
	cp := *item
	s.bets[item.ID] = &cp
	return nil
}

func (s *stubRepo) ListUnsettledBetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bet
	for id := uint64(1); id <= s.nextBet; id++ {
		b, ok := s.bets[id]
		if ok && b.Period == period && !b.Settled {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubRepo) CountSettledBetsByPeriod(ctx context.Context, period int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, b := range s.bets {
		if b.Period == period && b.Settled {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) ListBetsByUser(ctx context.Context, userID uint64, limit int) ([]models.Bet, error) {
	return nil, nil
}
func (s *stubRepo) ListBetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error) {
	return nil, nil
}

func (s *stubRepo) ListUnsettledPeriods(ctx context.Context, before int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[int64]bool{}
	var out []int64
	for id := uint64(1); id <= s.nextBet; id++ {
		b, ok := s.bets[id]
		if ok && !b.Settled && b.Period < before && !seen[b.Period] {
			seen[b.Period] = true
			out = append(out, b.Period)
		}
	}
	return out, nil
}

func (s *stubRepo) SettleLosingBet(ctx context.Context, betID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failSettle[betID]; ok {
		return err
	}
	b, ok := s.bets[betID]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Settled {
		return repository.ErrBetSettled
	}
	now := time.Now().UTC()
	b.Settled = true
	b.IsWinning = false
	b.Payout = decimal.Zero
	b.SettledAt = &now
	return nil
}

func (s *stubRepo) SettleWinningBet(ctx context.Context, betID uint64, payout decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failSettle[betID]; ok {
		return decimal.Zero, err
	}
	b, ok := s.bets[betID]
	if !ok {
		return decimal.Zero, repository.ErrNotFound
	}
	if b.Settled {
		return decimal.Zero, repository.ErrBetSettled
	}
	now := time.Now().UTC()
	b.Settled = true
	b.IsWinning = true
	b.Payout = payout
	b.SettledAt = &now
	next := s.balances[b.UserID].Add(payout)
	s.balances[b.UserID] = next
	s.txs = append(s.txs, models.Transaction{UserID: b.UserID, Type: models.TxTypeWin, Amount: payout})
	return next, nil
}

func (s *stubRepo) InsertResult(ctx context.Context, item *models.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[item.Period]; ok {
		return repository.ErrDuplicateResult
	}
	cp := *item
	s.results[item.Period] = &cp
	return nil
}

func (s *stubRepo) GetResultByPeriod(ctx context.Context, period int64) (*models.GameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[period]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *stubRepo) ListRecentResults(ctx context.Context, limit int) ([]models.GameResult, error) {
	return nil, nil
}
func (s *stubRepo) TrimResults(ctx context.Context, keep int) (int64, error) { return 0, nil }

func (s *stubRepo) ListTransactionsByUser(ctx context.Context, userID uint64, limit int) ([]models.Transaction, error) {
	return nil, nil
}

func (s *stubRepo) CreateDepositRequest(ctx context.Context, item *models.DepositRequest) error {
	return nil
}
func (s *stubRepo) GetDepositRequestByID(ctx context.Context, id uint64) (*models.DepositRequest, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) AttachDepositProof(ctx context.Context, id uint64, userID uint64, proof string) error {
	return nil
}
func (s *stubRepo) ListDepositRequests(ctx context.Context, status string) ([]models.DepositRequest, error) {
	return nil, nil
}
func (s *stubRepo) ListDepositRequestsByUser(ctx context.Context, userID uint64) ([]models.DepositRequest, error) {
	return nil, nil
}
func (s *stubRepo) CountUserDepositsSince(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	return 0, nil
}
func (s *stubRepo) VerifyDepositRequest(ctx context.Context, id uint64) (*models.DepositRequest, decimal.Decimal, error) {
	return nil, decimal.Zero, repository.ErrNotFound
}
func (s *stubRepo) RejectDepositRequest(ctx context.Context, id uint64) (*models.DepositRequest, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) ExpireStaleDepositRequests(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *stubRepo) CreateWithdrawalRequest(ctx context.Context, item *models.WithdrawalRequest) (decimal.Decimal, error) {
	return decimal.Zero, nil
}
func (s *stubRepo) GetWithdrawalRequestByID(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) ListWithdrawalRequests(ctx context.Context, status string) ([]models.WithdrawalRequest, error) {
	return nil, nil
}
func (s *stubRepo) ListWithdrawalRequestsByUser(ctx context.Context, userID uint64) ([]models.WithdrawalRequest, error) {
	return nil, nil
}
func (s *stubRepo) CountUserWithdrawalsSince(ctx context.Context, userID uint64, since time.Time) (int64, error) {
	return 0, nil
}
func (s *stubRepo) ApproveWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) ProcessWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRepo) RejectWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, decimal.Decimal, error) {
	return nil, decimal.Zero, repository.ErrNotFound
}

var _ repository.Repository = (*stubRepo)(nil)
