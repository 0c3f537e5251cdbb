package game

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wingo/internal/broadcast"
	"wingo/internal/models"
	"wingo/internal/repository"
)

// ErrPeriodSettled is returned when a sweep is requested for a period that
// already went through settlement.
var ErrPeriodSettled = errors.New("period already settled")

// Publisher fans events out to connected clients. A nil publisher is valid
// and drops everything, which keeps the engine testable without a hub.
type Publisher interface {
	Publish(ev broadcast.Event)
}

var (
	payoutBigSmall = decimal.NewFromInt(2)
	payoutColor    = decimal.NewFromInt(2)
	payoutNumber   = decimal.NewFromInt(9)
)

// Evaluate decides whether a bet won against a result and, if so, the gross
// payout (stake times multiplier) to credit back.
func Evaluate(bet *models.Bet, result *models.GameResult) (bool, decimal.Decimal) {
	switch bet.BetType {
	case models.BetTypeBigSmall:
		if bet.BetOption == result.Size {
			return true, bet.Stake.Mul(payoutBigSmall)
		}
	case models.BetTypeColor:
		if bet.BetOption == result.Color {
			return true, bet.Stake.Mul(payoutColor)
		}
	case models.BetTypeNumber:
		if n, err := strconv.Atoi(bet.BetOption); err == nil && n == result.WinningNumber {
			return true, bet.Stake.Mul(payoutNumber)
		}
	}
	return false, decimal.Zero
}

// SweepStats summarizes one settlement pass over a period.
type SweepStats struct {
	Bets   int
	Wins   int
	Losses int
	Errors int
	Paid   decimal.Decimal
}

// Settler drives settlement of whole periods. Each bet transitions exactly
// once: the repository rejects a second settle of the same bet, and a bet
// whose settle fails stays unsettled so a later recovery pass retries it.
type Settler struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Events Publisher

	mu   sync.Mutex
	done map[int64]struct{}
}

// SettlePeriod runs the fresh sweep for a period that just closed. It
// refuses to run twice for the same period, both against its own in-process
// record and against settled rows already in storage.
func (s *Settler) SettlePeriod(ctx context.Context, result *models.GameResult) (SweepStats, error) {
	s.mu.Lock()
	if s.done == nil {
		s.done = make(map[int64]struct{})
	}
	if _, ok := s.done[result.Period]; ok {
		s.mu.Unlock()
		return SweepStats{}, ErrPeriodSettled
	}
	s.done[result.Period] = struct{}{}
	s.mu.Unlock()

	settled, err := s.Repo.CountSettledBetsByPeriod(ctx, result.Period)
	if err != nil {
		return SweepStats{}, err
	}
	if settled > 0 {
		return SweepStats{}, ErrPeriodSettled
	}
	return s.sweep(ctx, result)
}

// Resume settles whatever is still open for a period that already has a
// result, skipping the freshness guard. Used at startup and after partial
// sweeps.
func (s *Settler) Resume(ctx context.Context, result *models.GameResult) (SweepStats, error) {
	s.mu.Lock()
	if s.done == nil {
		s.done = make(map[int64]struct{})
	}
	s.done[result.Period] = struct{}{}
	s.mu.Unlock()
	return s.sweep(ctx, result)
}

func (s *Settler) sweep(ctx context.Context, result *models.GameResult) (SweepStats, error) {
	stats := SweepStats{Paid: decimal.Zero}

	bets, err := s.Repo.ListUnsettledBetsByPeriod(ctx, result.Period)
	if err != nil {
		return stats, err
	}
	stats.Bets = len(bets)

	for i := range bets {
		bet := &bets[i]
		won, payout := Evaluate(bet, result)

		var newBalance *decimal.Decimal
		if won {
			balance, err := s.Repo.SettleWinningBet(ctx, bet.ID, payout)
			if err != nil {
				s.recordSweepError(bet, err, &stats)
				continue
			}
			newBalance = &balance
			stats.Wins++
			stats.Paid = stats.Paid.Add(payout)
		} else {
			if err := s.Repo.SettleLosingBet(ctx, bet.ID); err != nil {
				s.recordSweepError(bet, err, &stats)
				continue
			}
			payout = decimal.Zero
			stats.Losses++
		}

		if s.Events != nil {
			s.Events.Publish(broadcast.BetSettled{
				UserID:     bet.UserID,
				BetID:      bet.ID,
				Period:     bet.Period,
				BetType:    bet.BetType,
				BetOption:  bet.BetOption,
				Stake:      bet.Stake,
				IsWinning:  won,
				Payout:     payout,
				NewBalance: newBalance,
			})
		}
	}

	if s.Logger != nil {
		s.Logger.Info("period settled",
			zap.Int64("period", result.Period),
			zap.Int("winning_number", result.WinningNumber),
			zap.Int("bets", stats.Bets),
			zap.Int("wins", stats.Wins),
			zap.Int("losses", stats.Losses),
			zap.Int("errors", stats.Errors),
			zap.String("paid", stats.Paid.String()))
	}
	return stats, nil
}

// recordSweepError keeps one bad bet from blocking the rest of the sweep.
// An ErrBetSettled just means another writer got there first.
func (s *Settler) recordSweepError(bet *models.Bet, err error, stats *SweepStats) {
	if errors.Is(err, repository.ErrBetSettled) {
		if s.Logger != nil {
			s.Logger.Debug("bet already settled", zap.Uint64("bet_id", bet.ID))
		}
		return
	}
	stats.Errors++
	if s.Logger != nil {
		s.Logger.Error("settle bet failed",
			zap.Uint64("bet_id", bet.ID),
			zap.Int64("period", bet.Period),
			zap.Error(err))
	}
}
