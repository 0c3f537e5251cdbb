package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"wingo/internal/broadcast"
	"wingo/internal/models"
	"wingo/internal/repository"
)

// Engine drives the round lifecycle from a one second ticker. It never
// counts periods itself: each tick re-derives the current period from the
// clock and closes the previous one when the derived value moves.
type Engine struct {
	Repo     repository.Repository
	Logger   *zap.Logger
	Events   Publisher
	Clock    *Clock
	Override *Override

	generator *Generator
	settler   *Settler

	mu         sync.Mutex
	lastPeriod int64
	lastResult *broadcast.ResultSummary
}

func NewEngine(repo repository.Repository, logger *zap.Logger, events Publisher, lockSeconds int) *Engine {
	override := &Override{}
	return &Engine{
		Repo:      repo,
		Logger:    logger,
		Events:    events,
		Clock:     NewClock(lockSeconds),
		Override:  override,
		generator: &Generator{Repo: repo, Override: override},
		settler:   &Settler{Repo: repo, Logger: logger, Events: events},
	}
}

// Run blocks until ctx is canceled. It first settles whatever older periods
// still carry open bets, then ticks once per second, announcing status and
// closing periods as the clock rolls over.
func (e *Engine) Run(ctx context.Context) error {
	if e == nil {
		return nil
	}
	if err := e.RecoverPending(ctx); err != nil && e.Logger != nil {
		e.Logger.Warn("settlement recovery failed", zap.Error(err))
	}

	e.mu.Lock()
	e.lastPeriod = e.Clock.Period()
	e.mu.Unlock()
	e.loadLastResult(ctx)

	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			e.Tick(ctx)
		}
	}
}

// Tick is one step of the loop: close the previous period if the clock
// moved, then announce the live status.
func (e *Engine) Tick(ctx context.Context) {
	period := e.Clock.Period()

	e.mu.Lock()
	closed := int64(0)
	if period != e.lastPeriod {
		closed = e.lastPeriod
		e.lastPeriod = period
	}
	e.mu.Unlock()

	if closed != 0 {
		e.closePeriod(ctx, closed)
	}
	if e.Events != nil {
		e.Events.Publish(e.Status())
	}
}

// Status snapshots the live round state for status frames and the game
// status endpoint.
func (e *Engine) Status() broadcast.PeriodStatus {
	e.mu.Lock()
	last := e.lastResult
	e.mu.Unlock()
	return broadcast.PeriodStatus{
		Period:     e.Clock.Period(),
		TimeLeft:   e.Clock.TimeLeft(),
		Locked:     e.Clock.Locked(),
		LastResult: last,
	}
}

// ForceResult stores a winning number for the next draw. At most one value
// is pending; a newer call overwrites an unconsumed older one.
func (e *Engine) ForceResult(n int) error {
	return e.Override.Set(n)
}

func (e *Engine) ForcePending() bool {
	return e.Override.Pending()
}

// closePeriod draws and persists the outcome for a period that just ended,
// announces it, then sweeps its bets. Settlement never runs without a
// persisted result.
func (e *Engine) closePeriod(ctx context.Context, period int64) {
	result, err := e.generator.Draw(ctx, period)
	if err != nil {
		if e.Logger != nil {
			if errors.Is(err, repository.ErrDuplicateResult) {
				e.Logger.Warn("result already drawn", zap.Int64("period", period))
			} else {
				e.Logger.Error("draw result failed", zap.Int64("period", period), zap.Error(err))
			}
		}
		return
	}
	e.announce(result)

	if _, err := e.settler.SettlePeriod(ctx, result); err != nil && !errors.Is(err, ErrPeriodSettled) {
		if e.Logger != nil {
			e.Logger.Error("settlement sweep failed", zap.Int64("period", period), zap.Error(err))
		}
	}
}

// RecoverPending settles periods older than the current one that still have
// unsettled bets. A period without a result gets one drawn first, so a crash
// between rollover and draw cannot strand bets forever.
func (e *Engine) RecoverPending(ctx context.Context) error {
	periods, err := e.Repo.ListUnsettledPeriods(ctx, e.Clock.Period())
	if err != nil {
		return err
	}
	for _, period := range periods {
		result, err := e.Repo.GetResultByPeriod(ctx, period)
		if errors.Is(err, repository.ErrNotFound) {
			result, err = e.generator.Draw(ctx, period)
			if err == nil {
				e.announce(result)
			}
		}
		if err != nil {
			if e.Logger != nil {
				e.Logger.Error("recover period failed", zap.Int64("period", period), zap.Error(err))
			}
			continue
		}
		if _, err := e.settler.Resume(ctx, result); err != nil && e.Logger != nil {
			e.Logger.Error("recover sweep failed", zap.Int64("period", period), zap.Error(err))
		}
	}
	return nil
}

func (e *Engine) announce(result *models.GameResult) {
	summary := &broadcast.ResultSummary{
		Period:        result.Period,
		WinningNumber: result.WinningNumber,
		Color:         result.Color,
		Size:          result.Size,
	}
	e.mu.Lock()
	e.lastResult = summary
	e.mu.Unlock()

	if e.Events != nil {
		e.Events.Publish(broadcast.ResultAnnounced{
			Period:        result.Period,
			WinningNumber: result.WinningNumber,
			Color:         result.Color,
			Size:          result.Size,
			At:            result.CreatedAt,
		})
	}
}

func (e *Engine) loadLastResult(ctx context.Context) {
	results, err := e.Repo.ListRecentResults(ctx, 1)
	if err != nil || len(results) == 0 {
		return
	}
	r := results[0]
	e.mu.Lock()
	e.lastResult = &broadcast.ResultSummary{
		Period:        r.Period,
		WinningNumber: r.WinningNumber,
		Color:         r.Color,
		Size:          r.Size,
	}
	e.mu.Unlock()
}
