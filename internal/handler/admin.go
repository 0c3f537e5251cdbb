package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wingo/internal/game"
	"wingo/internal/models"
	"wingo/internal/repository"
	"wingo/internal/service"
)

type AdminHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Engine *game.Engine
	Wallet *service.Wallet
}

func (h *AdminHandler) Register(r *gin.Engine, adminMW ...gin.HandlerFunc) {
	g := r.Group("/api/admin", adminMW...)
	g.GET("/users", h.listUsers)
	g.PUT("/users/:id/balance", h.setBalance)

	g.GET("/deposits", h.listDeposits)
	g.POST("/deposits/:id/verify", h.verifyDeposit)
	g.POST("/deposits/:id/reject", h.rejectDeposit)

	g.GET("/withdrawals", h.listWithdrawals)
	g.POST("/withdrawals/:id/approve", h.approveWithdrawal)
	g.POST("/withdrawals/:id/process", h.processWithdrawal)
	g.POST("/withdrawals/:id/reject", h.rejectWithdrawal)

	g.GET("/bets", h.periodBets)
	g.POST("/force-result", h.forceResult)
}

func (h *AdminHandler) listUsers(c *gin.Context) {
	items, err := h.Repo.ListUsers(c.Request.Context())
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	views := make([]userView, 0, len(items))
	for i := range items {
		views = append(views, viewUser(&items[i]))
	}
	Ok(c, views, nil)
}

type setBalanceRequest struct {
	Balance string `json:"balance" binding:"required"`
}

func (h *AdminHandler) setBalance(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req setBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "balance is required", nil)
		return
	}
	balance, err := decimal.NewFromString(req.Balance)
	if err != nil || balance.IsNegative() {
		Error(c, http.StatusBadRequest, "invalid balance", nil)
		return
	}
	if err := h.Repo.SetUserBalance(c.Request.Context(), id, balance); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if h.Logger != nil {
		h.Logger.Warn("balance overridden by admin",
			zap.Uint64("user_id", id),
			zap.String("balance", balance.String()))
	}
	Ok(c, gin.H{"id": id, "balance": balance}, nil)
}

func (h *AdminHandler) listDeposits(c *gin.Context) {
	items, err := h.Repo.ListDepositRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *AdminHandler) verifyDeposit(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Wallet.VerifyDeposit(c.Request.Context(), id)
	if err != nil {
		h.walletError(c, err, "deposit")
		return
	}
	Ok(c, item, nil)
}

func (h *AdminHandler) rejectDeposit(c *gin.Context) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Wallet.RejectDeposit(c.Request.Context(), id)
	if err != nil {
		h.walletError(c, err, "deposit")
		return
	}
	Ok(c, item, nil)
}

func (h *AdminHandler) listWithdrawals(c *gin.Context) {
	items, err := h.Repo.ListWithdrawalRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *AdminHandler) approveWithdrawal(c *gin.Context) {
	h.withdrawalTransition(c, h.Wallet.ApproveWithdrawal)
}

func (h *AdminHandler) processWithdrawal(c *gin.Context) {
	h.withdrawalTransition(c, h.Wallet.ProcessWithdrawal)
}

func (h *AdminHandler) rejectWithdrawal(c *gin.Context) {
	h.withdrawalTransition(c, h.Wallet.RejectWithdrawal)
}

func (h *AdminHandler) withdrawalTransition(c *gin.Context, fn func(ctx context.Context, id uint64) (*models.WithdrawalRequest, error)) {
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := fn(c.Request.Context(), id)
	if err != nil {
		h.walletError(c, err, "withdrawal")
		return
	}
	Ok(c, item, nil)
}

func (h *AdminHandler) walletError(c *gin.Context, err error, kind string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		Error(c, http.StatusNotFound, kind+" request not found", nil)
	case errors.Is(err, repository.ErrInvalidStatus):
		Error(c, http.StatusConflict, kind+" request is not in the expected status", nil)
	default:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	}
}

// periodBets shows the wagers riding on a period, defaulting to the open
// one, with per-option totals so the operator sees the exposure at a glance.
func (h *AdminHandler) periodBets(c *gin.Context) {
	period := int64(intQuery(c, "period", 0))
	if period == 0 {
		period = h.Engine.Status().Period
	}
	items, err := h.Repo.ListBetsByPeriod(c.Request.Context(), period)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	totals := map[string]decimal.Decimal{}
	staked := decimal.Zero
	for i := range items {
		key := items[i].BetType + ":" + items[i].BetOption
		totals[key] = totals[key].Add(items[i].Stake)
		staked = staked.Add(items[i].Stake)
	}
	Ok(c, items, map[string]any{
		"period":       period,
		"total_staked": staked.String(),
		"by_option":    totals,
	})
}

type forceResultRequest struct {
	Number *int `json:"number" binding:"required"`
}

func (h *AdminHandler) forceResult(c *gin.Context) {
	var req forceResultRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Number == nil {
		Error(c, http.StatusBadRequest, "number is required", nil)
		return
	}
	if err := h.Engine.ForceResult(*req.Number); err != nil {
		if errors.Is(err, game.ErrInvalidOverride) {
			Error(c, http.StatusBadRequest, "number must be between 0 and 9", nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if h.Logger != nil {
		h.Logger.Warn("next result forced", zap.Int("number", *req.Number))
	}
	Ok(c, gin.H{"number": *req.Number, "pending": h.Engine.ForcePending()}, nil)
}
