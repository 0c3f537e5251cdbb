package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"wingo/internal/models"
	"wingo/internal/repository"
)

// ErrInvalidOverride is returned when a forced winning number is outside
// the 0-9 wheel.
var ErrInvalidOverride = errors.New("forced winning number must be between 0 and 9")

// ColorOf maps a winning number onto its color. 0 and 5 are the violet
// house numbers, odd numbers in the green set pay green, the rest red.
func ColorOf(n int) string {
	switch n {
	case 0, 5:
		return models.ColorViolet
	case 1, 3, 7, 9:
		return models.ColorGreen
	default:
		return models.ColorRed
	}
}

// SizeOf maps a winning number onto big (5-9) or small (0-4).
func SizeOf(n int) string {
	if n >= 5 {
		return models.SizeBig
	}
	return models.SizeSmall
}

// Override holds at most one pending forced winning number. A stored value
// is consumed by exactly one draw and then cleared, so a forced result never
// bleeds into later periods.
type Override struct {
	mu    sync.Mutex
	value int
	set   bool
}

func (o *Override) Set(n int) error {
	if n < 0 || n > 9 {
		return ErrInvalidOverride
	}
	o.mu.Lock()
	o.value = n
	o.set = true
	o.mu.Unlock()
	return nil
}

// Consume returns the pending value, if any, and clears it.
func (o *Override) Consume() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.set {
		return 0, false
	}
	o.set = false
	return o.value, true
}

func (o *Override) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.set
}

// Generator produces and persists the outcome of a period. The unique index
// on the period column is the real guard against a second draw for the same
// period; the generator only translates that violation into
// repository.ErrDuplicateResult for callers.
type Generator struct {
	Repo     repository.Repository
	Override *Override

	// Intn is swappable for deterministic draws in tests. Nil means
	// rand.Intn.
	Intn func(n int) int
}

// Draw picks the winning number for period, derives color and size, and
// persists the result. The stored row is returned so callers can announce
// exactly what was written.
func (g *Generator) Draw(ctx context.Context, period int64) (*models.GameResult, error) {
	n, forced := 0, false
	if g.Override != nil {
		n, forced = g.Override.Consume()
	}
	if !forced {
		intn := g.Intn
		if intn == nil {
			intn = rand.Intn
		}
		n = intn(10)
	}

	result := &models.GameResult{
		Period:        period,
		WinningNumber: n,
		Color:         ColorOf(n),
		Size:          SizeOf(n),
		CreatedAt:     time.Now().UTC(),
	}
	if err := g.Repo.InsertResult(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}
