package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wingo/internal/models"
)

var (
	// ErrInsufficientBalance is returned by stake and withdrawal debits when
	// the user's balance does not cover the amount. No state changes.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDuplicateResult is returned when a result already exists for the
	// period. The existing row is never overwritten.
	ErrDuplicateResult = errors.New("result already exists for period")

	// ErrBetSettled is returned when a settle call hits a bet whose Settled
	// flag already flipped. The bet and balance are left untouched.
	ErrBetSettled = errors.New("bet already settled")

	ErrNotFound = errors.New("not found")

	// ErrInvalidStatus is returned by wallet transitions applied to a request
	// that is not in the expected state (e.g. verifying a non-pending deposit).
	ErrInvalidStatus = errors.New("invalid request status")
)

// Repository is the single point of truth for balances, bets, results and
// wallet requests. Every method that moves money is transactional: either the
// whole step applies or an error surfaces.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Users.
	CreateUser(ctx context.Context, item *models.User) error
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserBalance(ctx context.Context, userID uint64, balance decimal.Decimal) error

	// Balance moves outside settlement. Debit locks the user row, checks the
	// balance and fails with ErrInsufficientBalance before any write. Both
	// append the matching ledger transaction and return the new balance.
	Credit(ctx context.Context, userID uint64, amount decimal.Decimal, txType, referenceID, description string) (decimal.Decimal, error)
	Debit(ctx context.Context, userID uint64, amount decimal.Decimal, txType, referenceID, description string) (decimal.Decimal, error)

	// Bets.
	CreateBet(ctx context.Context, item *models.Bet) error
	ListUnsettledBetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error)
	CountSettledBetsByPeriod(ctx context.Context, period int64) (int64, error)
	ListBetsByUser(ctx context.Context, userID uint64, limit int) ([]models.Bet, error)
	ListBetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error)
	// ListUnsettledPeriods reports distinct closed periods before the given
	// one that still carry unsettled bets (recovery after a crash or a
	// failed sweep).
	ListUnsettledPeriods(ctx context.Context, before int64) ([]int64, error)

	// Settlement. Each call transitions one bet exactly once; the winning
	// variant applies bet update, balance credit and win transaction in a
	// single database transaction and returns the new balance.
	SettleLosingBet(ctx context.Context, betID uint64) error
	SettleWinningBet(ctx context.Context, betID uint64, payout decimal.Decimal) (decimal.Decimal, error)

	// Results.
	InsertResult(ctx context.Context, item *models.GameResult) error
	GetResultByPeriod(ctx context.Context, period int64) (*models.GameResult, error)
	ListRecentResults(ctx context.Context, limit int) ([]models.GameResult, error)
	TrimResults(ctx context.Context, keep int) (int64, error)

	// Ledger history.
	ListTransactionsByUser(ctx context.Context, userID uint64, limit int) ([]models.Transaction, error)

	// Deposits.
	CreateDepositRequest(ctx context.Context, item *models.DepositRequest) error
	GetDepositRequestByID(ctx context.Context, id uint64) (*models.DepositRequest, error)
	AttachDepositProof(ctx context.Context, id uint64, userID uint64, proof string) error
	ListDepositRequests(ctx context.Context, status string) ([]models.DepositRequest, error)
	ListDepositRequestsByUser(ctx context.Context, userID uint64) ([]models.DepositRequest, error)
	CountUserDepositsSince(ctx context.Context, userID uint64, since time.Time) (int64, error)
	VerifyDepositRequest(ctx context.Context, id uint64) (*models.DepositRequest, decimal.Decimal, error)
	RejectDepositRequest(ctx context.Context, id uint64) (*models.DepositRequest, error)
	ExpireStaleDepositRequests(ctx context.Context, before time.Time) (int64, error)

	// Withdrawals. Creation debits the balance up front; rejection refunds it.
	CreateWithdrawalRequest(ctx context.Context, item *models.WithdrawalRequest) (decimal.Decimal, error)
	GetWithdrawalRequestByID(ctx context.Context, id uint64) (*models.WithdrawalRequest, error)
	ListWithdrawalRequests(ctx context.Context, status string) ([]models.WithdrawalRequest, error)
	ListWithdrawalRequestsByUser(ctx context.Context, userID uint64) ([]models.WithdrawalRequest, error)
	CountUserWithdrawalsSince(ctx context.Context, userID uint64, since time.Time) (int64, error)
	ApproveWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, error)
	ProcessWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, error)
	RejectWithdrawalRequest(ctx context.Context, id uint64) (*models.WithdrawalRequest, decimal.Decimal, error)
}
