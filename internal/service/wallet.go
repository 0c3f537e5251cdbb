package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wingo/internal/broadcast"
	"wingo/internal/config"
	"wingo/internal/models"
	"wingo/internal/repository"
)

var (
	// ErrDailyDepositLimit is returned when the user already opened the
	// maximum number of deposit requests today.
	ErrDailyDepositLimit = errors.New("daily deposit limit reached")

	// ErrDailyWithdrawalLimit is returned when the user already opened the
	// maximum number of withdrawal requests today.
	ErrDailyWithdrawalLimit = errors.New("daily withdrawal limit reached")

	// ErrBelowMinimum is returned for non-positive or below-minimum amounts.
	ErrBelowMinimum = errors.New("amount below minimum")
)

// Publisher fans events out to connected clients.
type Publisher interface {
	Publish(ev broadcast.Event)
}

// Wallet owns the deposit and withdrawal request flows. Balance effects live
// in the repository; this layer enforces amounts, daily limits and emits the
// user-facing events.
type Wallet struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Events Publisher
	Config config.WalletConfig
}

// RequestDeposit opens a deposit request in pending_payment. Nothing is
// credited until an admin verifies it.
func (w *Wallet) RequestDeposit(ctx context.Context, userID uint64, amount decimal.Decimal, upiID string) (*models.DepositRequest, error) {
	if amount.LessThan(w.minDeposit()) || !amount.IsPositive() {
		return nil, ErrBelowMinimum
	}
	if w.Config.DailyDepositLimit > 0 {
		n, err := w.Repo.CountUserDepositsSince(ctx, userID, startOfDay())
		if err != nil {
			return nil, err
		}
		if n >= int64(w.Config.DailyDepositLimit) {
			return nil, ErrDailyDepositLimit
		}
	}

	req := &models.DepositRequest{
		OrderNumber: "DEP-" + uuid.NewString(),
		UserID:      userID,
		Amount:      amount,
		UPIID:       upiID,
		Status:      models.DepositStatusPendingPayment,
		CreatedAt:   time.Now().UTC(),
	}
	if err := w.Repo.CreateDepositRequest(ctx, req); err != nil {
		return nil, err
	}
	if w.Logger != nil {
		w.Logger.Info("deposit requested",
			zap.Uint64("user_id", userID),
			zap.String("order_number", req.OrderNumber),
			zap.String("amount", amount.String()))
	}
	return req, nil
}

// SubmitDepositProof attaches the payment reference and moves the request to
// pending, where it waits for admin review.
func (w *Wallet) SubmitDepositProof(ctx context.Context, userID, requestID uint64, proof string) error {
	return w.Repo.AttachDepositProof(ctx, requestID, userID, proof)
}

// VerifyDeposit approves a pending deposit and credits the user in the same
// database transaction.
func (w *Wallet) VerifyDeposit(ctx context.Context, requestID uint64) (*models.DepositRequest, error) {
	req, newBalance, err := w.Repo.VerifyDepositRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if w.Events != nil {
		w.Events.Publish(broadcast.DepositVerified{
			UserID:      req.UserID,
			OrderNumber: req.OrderNumber,
			Amount:      req.Amount,
			NewBalance:  newBalance,
		})
	}
	if w.Logger != nil {
		w.Logger.Info("deposit verified",
			zap.Uint64("user_id", req.UserID),
			zap.String("order_number", req.OrderNumber),
			zap.String("amount", req.Amount.String()))
	}
	return req, nil
}

func (w *Wallet) RejectDeposit(ctx context.Context, requestID uint64) (*models.DepositRequest, error) {
	return w.Repo.RejectDepositRequest(ctx, requestID)
}

// RequestWithdrawal opens a withdrawal request and debits the amount up
// front, so a user cannot spend funds that are already on their way out.
func (w *Wallet) RequestWithdrawal(ctx context.Context, userID uint64, amount decimal.Decimal, upiID string) (*models.WithdrawalRequest, decimal.Decimal, error) {
	if !amount.IsPositive() {
		return nil, decimal.Zero, ErrBelowMinimum
	}
	if w.Config.DailyWithdrawalLimit > 0 {
		n, err := w.Repo.CountUserWithdrawalsSince(ctx, userID, startOfDay())
		if err != nil {
			return nil, decimal.Zero, err
		}
		if n >= int64(w.Config.DailyWithdrawalLimit) {
			return nil, decimal.Zero, ErrDailyWithdrawalLimit
		}
	}

	req := &models.WithdrawalRequest{
		UserID:    userID,
		Amount:    amount,
		UPIID:     upiID,
		Status:    models.WithdrawalStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	newBalance, err := w.Repo.CreateWithdrawalRequest(ctx, req)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if w.Logger != nil {
		w.Logger.Info("withdrawal requested",
			zap.Uint64("user_id", userID),
			zap.Uint64("request_id", req.ID),
			zap.String("amount", amount.String()))
	}
	return req, newBalance, nil
}

func (w *Wallet) ApproveWithdrawal(ctx context.Context, requestID uint64) (*models.WithdrawalRequest, error) {
	return w.Repo.ApproveWithdrawalRequest(ctx, requestID)
}

// ProcessWithdrawal marks an approved withdrawal as paid out. The funds left
// the balance at request time, so no balance change happens here.
func (w *Wallet) ProcessWithdrawal(ctx context.Context, requestID uint64) (*models.WithdrawalRequest, error) {
	req, err := w.Repo.ProcessWithdrawalRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if w.Events != nil {
		w.Events.Publish(broadcast.WithdrawalProcessed{
			UserID:    req.UserID,
			RequestID: req.ID,
			Amount:    req.Amount,
		})
	}
	return req, nil
}

// RejectWithdrawal cancels a pending or approved withdrawal and refunds the
// held amount.
func (w *Wallet) RejectWithdrawal(ctx context.Context, requestID uint64) (*models.WithdrawalRequest, error) {
	req, newBalance, err := w.Repo.RejectWithdrawalRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if w.Events != nil {
		w.Events.Publish(broadcast.WithdrawalRejected{
			UserID:     req.UserID,
			RequestID:  req.ID,
			Amount:     req.Amount,
			NewBalance: newBalance,
		})
	}
	return req, nil
}

func (w *Wallet) minDeposit() decimal.Decimal {
	min, err := decimal.NewFromString(w.Config.MinDeposit)
	if err != nil {
		return decimal.Zero
	}
	return min
}

func startOfDay() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
