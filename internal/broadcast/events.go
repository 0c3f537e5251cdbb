package broadcast

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventPeriodStatus        EventType = "game-status"
	EventResultAnnounced     EventType = "game-result"
	EventBetPlaced           EventType = "new-bet"
	EventBetSettled          EventType = "bet-result"
	EventDepositVerified     EventType = "deposit-verified"
	EventWithdrawalProcessed EventType = "withdrawal-processed"
	EventWithdrawalRejected  EventType = "withdrawal-rejected"
)

// Event is anything the hub can fan out. Payloads are plain structs so
// subscribers get a stable wire shape regardless of transport.
type Event interface {
	Type() EventType
}

// Envelope is the frame written to websocket clients.
type Envelope struct {
	Type    EventType `json:"type"`
	Payload Event     `json:"payload"`
}

// ResultSummary is the compact result shape embedded in status frames.
type ResultSummary struct {
	Period        int64  `json:"period"`
	WinningNumber int    `json:"winning_number"`
	Color         string `json:"color"`
	Size          string `json:"size"`
}

// PeriodStatus is emitted once per second with the live round state.
type PeriodStatus struct {
	Period     int64          `json:"period"`
	TimeLeft   int            `json:"time_left"`
	Locked     bool           `json:"locked"`
	LastResult *ResultSummary `json:"last_result,omitempty"`
}

func (PeriodStatus) Type() EventType { return EventPeriodStatus }

// ResultAnnounced is emitted once per period, right after the outcome is
// persisted and before individual bets settle.
type ResultAnnounced struct {
	Period        int64     `json:"period"`
	WinningNumber int       `json:"winning_number"`
	Color         string    `json:"color"`
	Size          string    `json:"size"`
	At            time.Time `json:"at"`
}

func (ResultAnnounced) Type() EventType { return EventResultAnnounced }

// BetPlaced is emitted when a wager is accepted for the open period.
type BetPlaced struct {
	UserID    uint64          `json:"user_id"`
	Username  string          `json:"username"`
	BetID     uint64          `json:"bet_id"`
	Period    int64           `json:"period"`
	BetType   string          `json:"bet_type"`
	BetOption string          `json:"bet_option"`
	Stake     decimal.Decimal `json:"stake"`
}

func (BetPlaced) Type() EventType { return EventBetPlaced }

// BetSettled is emitted once per bet during the settlement sweep.
// NewBalance is only present for winning bets, where the credit happened in
// the same transaction as the settle.
type BetSettled struct {
	UserID     uint64           `json:"user_id"`
	BetID      uint64           `json:"bet_id"`
	Period     int64            `json:"period"`
	BetType    string           `json:"bet_type"`
	BetOption  string           `json:"bet_option"`
	Stake      decimal.Decimal  `json:"stake"`
	IsWinning  bool             `json:"is_winning"`
	Payout     decimal.Decimal  `json:"payout"`
	NewBalance *decimal.Decimal `json:"new_balance,omitempty"`
}

func (BetSettled) Type() EventType { return EventBetSettled }

type DepositVerified struct {
	UserID      uint64          `json:"user_id"`
	OrderNumber string          `json:"order_number"`
	Amount      decimal.Decimal `json:"amount"`
	NewBalance  decimal.Decimal `json:"new_balance"`
}

func (DepositVerified) Type() EventType { return EventDepositVerified }

type WithdrawalProcessed struct {
	UserID    uint64          `json:"user_id"`
	RequestID uint64          `json:"request_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func (WithdrawalProcessed) Type() EventType { return EventWithdrawalProcessed }

type WithdrawalRejected struct {
	UserID     uint64          `json:"user_id"`
	RequestID  uint64          `json:"request_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

func (WithdrawalRejected) Type() EventType { return EventWithdrawalRejected }
