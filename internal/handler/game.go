package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wingo/internal/auth"
	"wingo/internal/broadcast"
	"wingo/internal/game"
	"wingo/internal/models"
	"wingo/internal/repository"
)

type GameHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Engine *game.Engine
	Events game.Publisher

	MinStake     decimal.Decimal
	HistoryLimit int
}

func (h *GameHandler) Register(r *gin.Engine, authMW gin.HandlerFunc) {
	g := r.Group("/api/game")
	g.GET("/status", h.status)
	g.GET("/history", h.history)
	g.POST("/bet", authMW, h.placeBet)
	g.GET("/my-bets", authMW, h.myBets)
}

func (h *GameHandler) status(c *gin.Context) {
	Ok(c, h.Engine.Status(), nil)
}

func (h *GameHandler) history(c *gin.Context) {
	limit := intQuery(c, "limit", h.HistoryLimit)
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	items, err := h.Repo.ListRecentResults(c.Request.Context(), limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

type placeBetRequest struct {
	BetType   string `json:"bet_type" binding:"required"`
	BetOption string `json:"bet_option" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
}

func validBetOption(betType, option string) bool {
	switch betType {
	case models.BetTypeColor:
		return option == models.ColorGreen || option == models.ColorRed || option == models.ColorViolet
	case models.BetTypeBigSmall:
		return option == models.SizeBig || option == models.SizeSmall
	case models.BetTypeNumber:
		return len(option) == 1 && option[0] >= '0' && option[0] <= '9'
	}
	return false
}

// placeBet accepts a wager for the open period. The stake is debited before
// the bet row exists; if the insert then fails the stake is refunded.
func (h *GameHandler) placeBet(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "bet_type, bet_option and amount are required", nil)
		return
	}
	betType := strings.TrimSpace(req.BetType)
	option := strings.TrimSpace(req.BetOption)
	if !validBetOption(betType, option) {
		Error(c, http.StatusBadRequest, "invalid bet type or option", nil)
		return
	}
	stake, ok := parseAmount(req.Amount)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid amount", nil)
		return
	}
	if stake.LessThan(h.MinStake) {
		Error(c, http.StatusBadRequest, "amount below minimum stake", map[string]any{
			"min_stake": h.MinStake.String(),
		})
		return
	}

	status := h.Engine.Status()
	if status.Locked {
		Error(c, http.StatusConflict, "betting is locked for this period", map[string]any{
			"period":    status.Period,
			"time_left": status.TimeLeft,
		})
		return
	}

	newBalance, err := h.Repo.Debit(c.Request.Context(), claims.UserID, stake,
		models.TxTypeBet, "", "stake for period")
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			Error(c, http.StatusPaymentRequired, "insufficient balance", nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	bet := &models.Bet{
		UserID:    claims.UserID,
		Period:    status.Period,
		BetType:   betType,
		BetOption: option,
		Stake:     stake,
		PlacedAt:  time.Now().UTC(),
	}
	if err := h.Repo.CreateBet(c.Request.Context(), bet); err != nil {
		if balance, cerr := h.Repo.Credit(c.Request.Context(), claims.UserID, stake,
			models.TxTypeRefund, "", "stake refund after failed bet"); cerr == nil {
			newBalance = balance
		} else if h.Logger != nil {
			h.Logger.Error("stake refund failed",
				zap.Uint64("user_id", claims.UserID),
				zap.String("amount", stake.String()),
				zap.Error(cerr))
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	if h.Events != nil {
		h.Events.Publish(broadcast.BetPlaced{
			UserID:    claims.UserID,
			Username:  claims.Username,
			BetID:     bet.ID,
			Period:    bet.Period,
			BetType:   bet.BetType,
			BetOption: bet.BetOption,
			Stake:     bet.Stake,
		})
	}
	if h.Logger != nil {
		h.Logger.Info("bet placed",
			zap.Uint64("user_id", claims.UserID),
			zap.Uint64("bet_id", bet.ID),
			zap.Int64("period", bet.Period),
			zap.String("bet_type", betType),
			zap.String("bet_option", option),
			zap.String("stake", stake.String()))
	}
	Ok(c, gin.H{"bet": bet, "balance": newBalance}, nil)
}

func (h *GameHandler) myBets(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := h.Repo.ListBetsByUser(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
