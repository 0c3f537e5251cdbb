package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wingo/internal/repository"
)

// Housekeeping bundles the periodic cleanup jobs the scheduler runs.
type Housekeeping struct {
	Repo   repository.Repository
	Logger *zap.Logger

	// KeepResults is how many recent results survive a trim.
	KeepResults int
	// DepositTTL is how long an unpaid deposit request may sit in
	// pending_payment before it expires.
	DepositTTL time.Duration
}

func (h *Housekeeping) TrimResults(ctx context.Context) error {
	if h == nil || h.KeepResults <= 0 {
		return nil
	}
	removed, err := h.Repo.TrimResults(ctx, h.KeepResults)
	if err != nil {
		return err
	}
	if removed > 0 && h.Logger != nil {
		h.Logger.Info("trimmed old results", zap.Int64("removed", removed))
	}
	return nil
}

func (h *Housekeeping) ExpireDeposits(ctx context.Context) error {
	if h == nil || h.DepositTTL <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-h.DepositTTL)
	expired, err := h.Repo.ExpireStaleDepositRequests(ctx, cutoff)
	if err != nil {
		return err
	}
	if expired > 0 && h.Logger != nil {
		h.Logger.Info("expired stale deposit requests", zap.Int64("expired", expired))
	}
	return nil
}
