package game

import "time"

// PeriodSeconds is the fixed length of one betting round.
const PeriodSeconds = 60

// DefaultLockSeconds is the tail of the round during which bet intake rejects
// new wagers so the settlement sweep only ever sees a closed set of bets.
const DefaultLockSeconds = 5

// PeriodAt derives the period id from wall-clock time. Periods are not
// counters: every caller re-derives them, so the engine self-heals across
// restarts and clock skew.
func PeriodAt(t time.Time) int64 {
	return t.Unix() / PeriodSeconds
}

// TimeLeftAt reports the seconds remaining in the period containing t,
// in [1, PeriodSeconds].
func TimeLeftAt(t time.Time) int {
	return PeriodSeconds - t.UTC().Second()
}

// Clock is the sole source of truth for the current period, its remaining
// time and the locked state.
type Clock struct {
	lockSeconds int
	now         func() time.Time
}

func NewClock(lockSeconds int) *Clock {
	if lockSeconds <= 0 || lockSeconds >= PeriodSeconds {
		lockSeconds = DefaultLockSeconds
	}
	return &Clock{lockSeconds: lockSeconds, now: time.Now}
}

func (c *Clock) Period() int64 {
	return PeriodAt(c.now())
}

func (c *Clock) TimeLeft() int {
	return TimeLeftAt(c.now())
}

// Locked reports whether bet intake must reject new wagers for the current
// period.
func (c *Clock) Locked() bool {
	left := c.TimeLeft()
	return left > 0 && left <= c.lockSeconds
}
