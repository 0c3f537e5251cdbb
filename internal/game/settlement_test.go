package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wingo/internal/broadcast"
	"wingo/internal/models"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *capturePublisher) Publish(ev broadcast.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *capturePublisher) byType(t broadcast.EventType) []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []broadcast.Event
	for _, ev := range p.events {
		if ev.Type() == t {
			out = append(out, ev)
		}
	}
	return out
}

func result(period int64, n int) *models.GameResult {
	return &models.GameResult{
		Period:        period,
		WinningNumber: n,
		Color:         ColorOf(n),
		Size:          SizeOf(n),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestEvaluate(t *testing.T) {
	res := result(100, 7) // green, big
	cases := []struct {
		betType string
		option  string
		stake   string
		won     bool
		payout  string
	}{
		{models.BetTypeNumber, "7", "100", true, "900"},
		{models.BetTypeNumber, "3", "100", false, "0"},
		{models.BetTypeColor, models.ColorGreen, "50", true, "100"},
		{models.BetTypeColor, models.ColorRed, "50", false, "0"},
		{models.BetTypeColor, models.ColorViolet, "50", false, "0"},
		{models.BetTypeBigSmall, models.SizeBig, "25", true, "50"},
		{models.BetTypeBigSmall, models.SizeSmall, "25", false, "0"},
		{models.BetTypeNumber, "not-a-number", "100", false, "0"},
	}
	for _, c := range cases {
		bet := &models.Bet{BetType: c.betType, BetOption: c.option, Stake: decimal.RequireFromString(c.stake)}
		won, payout := Evaluate(bet, res)
		if won != c.won {
			t.Fatalf("%s/%s won=%v want=%v", c.betType, c.option, won, c.won)
		}
		if payout.Cmp(decimal.RequireFromString(c.payout)) != 0 {
			t.Fatalf("%s/%s payout=%s want=%s", c.betType, c.option, payout.String(), c.payout)
		}
	}
}

func TestEvaluateVioletPeriod(t *testing.T) {
	res := result(100, 5) // violet, big
	violet := &models.Bet{BetType: models.BetTypeColor, BetOption: models.ColorViolet, Stake: decimal.NewFromInt(10)}
	if won, _ := Evaluate(violet, res); !won {
		t.Fatalf("violet bet must win on 5")
	}
	green := &models.Bet{BetType: models.BetTypeColor, BetOption: models.ColorGreen, Stake: decimal.NewFromInt(10)}
	if won, _ := Evaluate(green, res); won {
		t.Fatalf("green bet must lose on 5")
	}
}

func TestSettlePeriodNumberWin(t *testing.T) {
	repo := newStubRepo()
	events := &capturePublisher{}
	s := &Settler{Repo: repo, Events: events}

	// Stake already debited at placement: 1000 - 100.
	_ = repo.SetUserBalance(context.Background(), 1, decimal.NewFromInt(900))
	bet := repo.addBet(1, 100, models.BetTypeNumber, "7", "100")

	stats, err := s.SettlePeriod(context.Background(), result(100, 7))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if stats.Bets != 1 || stats.Wins != 1 || stats.Losses != 0 || stats.Errors != 0 {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.Paid.Cmp(decimal.NewFromInt(900)) != 0 {
		t.Fatalf("paid=%s want=900", stats.Paid.String())
	}

	u, _ := repo.GetUserByID(context.Background(), 1)
	if u.Balance.Cmp(decimal.NewFromInt(1800)) != 0 {
		t.Fatalf("balance=%s want=1800", u.Balance.String())
	}
	stored := repo.bets[bet.ID]
	if !stored.Settled || !stored.IsWinning || stored.Payout.Cmp(decimal.NewFromInt(900)) != 0 {
		t.Fatalf("bet=%+v want settled winning payout=900", stored)
	}

	settledEvents := events.byType(broadcast.EventBetSettled)
	if len(settledEvents) != 1 {
		t.Fatalf("settled events=%d want=1", len(settledEvents))
	}
	ev := settledEvents[0].(broadcast.BetSettled)
	if !ev.IsWinning || ev.NewBalance == nil || ev.NewBalance.Cmp(decimal.NewFromInt(1800)) != 0 {
		t.Fatalf("event=%+v want winning with new_balance=1800", ev)
	}
}

func TestSettlePeriodLoss(t *testing.T) {
	repo := newStubRepo()
	events := &capturePublisher{}
	s := &Settler{Repo: repo, Events: events}

	_ = repo.SetUserBalance(context.Background(), 1, decimal.NewFromInt(900))
	bet := repo.addBet(1, 100, models.BetTypeColor, models.ColorRed, "100")

	stats, err := s.SettlePeriod(context.Background(), result(100, 7))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if stats.Losses != 1 || stats.Wins != 0 {
		t.Fatalf("stats=%+v", stats)
	}

	// Losing stake stays debited.
	u, _ := repo.GetUserByID(context.Background(), 1)
	if u.Balance.Cmp(decimal.NewFromInt(900)) != 0 {
		t.Fatalf("balance=%s want=900", u.Balance.String())
	}
	stored := repo.bets[bet.ID]
	if !stored.Settled || stored.IsWinning {
		t.Fatalf("bet=%+v want settled losing", stored)
	}
	ev := events.byType(broadcast.EventBetSettled)[0].(broadcast.BetSettled)
	if ev.IsWinning || ev.NewBalance != nil || !ev.Payout.IsZero() {
		t.Fatalf("event=%+v want losing without new_balance", ev)
	}
}

func TestSettlePeriodMixedBets(t *testing.T) {
	repo := newStubRepo()
	s := &Settler{Repo: repo}

	_ = repo.SetUserBalance(context.Background(), 1, decimal.NewFromInt(0))
	_ = repo.SetUserBalance(context.Background(), 2, decimal.NewFromInt(0))
	repo.addBet(1, 100, models.BetTypeBigSmall, models.SizeBig, "40")   // wins 80
	repo.addBet(1, 100, models.BetTypeNumber, "2", "10")                // loses
	repo.addBet(2, 100, models.BetTypeColor, models.ColorGreen, "30")   // wins 60
	repo.addBet(2, 101, models.BetTypeColor, models.ColorGreen, "1000") // other period, untouched

	stats, err := s.SettlePeriod(context.Background(), result(100, 7))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if stats.Bets != 3 || stats.Wins != 2 || stats.Losses != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	if stats.Paid.Cmp(decimal.NewFromInt(140)) != 0 {
		t.Fatalf("paid=%s want=140", stats.Paid.String())
	}
	open, _ := repo.ListUnsettledBetsByPeriod(context.Background(), 101)
	if len(open) != 1 {
		t.Fatalf("other period bets=%d want=1", len(open))
	}
}

func TestSettlePeriodRepeatRejected(t *testing.T) {
	repo := newStubRepo()
	s := &Settler{Repo: repo}
	repo.addBet(1, 100, models.BetTypeNumber, "7", "100")

	if _, err := s.SettlePeriod(context.Background(), result(100, 7)); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if _, err := s.SettlePeriod(context.Background(), result(100, 7)); !errors.Is(err, ErrPeriodSettled) {
		t.Fatalf("err=%v want ErrPeriodSettled", err)
	}
}

func TestSettlePeriodRejectsPartiallySettledStorage(t *testing.T) {
	repo := newStubRepo()
	repo.addBet(1, 100, models.BetTypeNumber, "7", "100")
	bet := repo.addBet(2, 100, models.BetTypeNumber, "3", "100")
	_ = repo.SettleLosingBet(context.Background(), bet.ID)

	// Fresh settler, e.g. after a restart: storage already shows settled
	// bets for the period, so the fresh sweep must refuse and leave the
	// rest for Resume.
	s := &Settler{Repo: repo}
	if _, err := s.SettlePeriod(context.Background(), result(100, 7)); !errors.Is(err, ErrPeriodSettled) {
		t.Fatalf("err=%v want ErrPeriodSettled", err)
	}
}

func TestSweepIsolatesBetErrors(t *testing.T) {
	repo := newStubRepo()
	s := &Settler{Repo: repo}

	_ = repo.SetUserBalance(context.Background(), 1, decimal.NewFromInt(0))
	broken := repo.addBet(1, 100, models.BetTypeNumber, "7", "100")
	ok := repo.addBet(1, 100, models.BetTypeColor, models.ColorGreen, "50")
	repo.failSettle[broken.ID] = errors.New("boom")

	stats, err := s.SettlePeriod(context.Background(), result(100, 7))
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if stats.Errors != 1 || stats.Wins != 1 {
		t.Fatalf("stats=%+v want one error, one win", stats)
	}
	if repo.bets[broken.ID].Settled {
		t.Fatalf("failed bet must stay unsettled for retry")
	}
	if !repo.bets[ok.ID].Settled {
		t.Fatalf("healthy bet must settle despite neighbor failure")
	}

	// Retry path: the failure clears and Resume picks up the leftover.
	delete(repo.failSettle, broken.ID)
	retry, err := s.Resume(context.Background(), result(100, 7))
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if retry.Bets != 1 || retry.Wins != 1 {
		t.Fatalf("retry stats=%+v", retry)
	}
	if !repo.bets[broken.ID].Settled {
		t.Fatalf("bet must settle on retry")
	}
}

func TestResumeSkipsAlreadySettled(t *testing.T) {
	repo := newStubRepo()
	s := &Settler{Repo: repo}
	_ = repo.SetUserBalance(context.Background(), 1, decimal.NewFromInt(0))
	repo.addBet(1, 100, models.BetTypeNumber, "7", "100")

	if _, err := s.Resume(context.Background(), result(100, 7)); err != nil {
		t.Fatalf("resume: %v", err)
	}
	u, _ := repo.GetUserByID(context.Background(), 1)
	if u.Balance.Cmp(decimal.NewFromInt(900)) != 0 {
		t.Fatalf("balance=%s want=900", u.Balance.String())
	}

	// A second resume over the same period finds nothing open and pays
	// nothing again.
	stats, err := s.Resume(context.Background(), result(100, 7))
	if err != nil {
		t.Fatalf("second resume: %v", err)
	}
	if stats.Bets != 0 {
		t.Fatalf("stats=%+v want empty sweep", stats)
	}
	u, _ = repo.GetUserByID(context.Background(), 1)
	if u.Balance.Cmp(decimal.NewFromInt(900)) != 0 {
		t.Fatalf("balance=%s want unchanged 900", u.Balance.String())
	}
}
