package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wingo/internal/auth"
	"wingo/internal/repository"
	"wingo/internal/service"
)

type WalletHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
	Wallet *service.Wallet
}

func (h *WalletHandler) Register(r *gin.Engine, authMW gin.HandlerFunc) {
	g := r.Group("/api/wallet", authMW)
	g.POST("/deposits", h.requestDeposit)
	g.POST("/deposits/:id/proof", h.submitProof)
	g.GET("/deposits", h.myDeposits)
	g.POST("/withdrawals", h.requestWithdrawal)
	g.GET("/withdrawals", h.myWithdrawals)
	g.GET("/transactions", h.myTransactions)
}

type walletAmountRequest struct {
	Amount string `json:"amount" binding:"required"`
	UPIID  string `json:"upi_id"`
}

func (h *WalletHandler) requestDeposit(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	var req walletAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "amount is required", nil)
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid amount", nil)
		return
	}
	item, err := h.Wallet.RequestDeposit(c.Request.Context(), claims.UserID, amount, strings.TrimSpace(req.UPIID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBelowMinimum):
			Error(c, http.StatusBadRequest, "amount below minimum deposit", nil)
		case errors.Is(err, service.ErrDailyDepositLimit):
			Error(c, http.StatusTooManyRequests, "daily deposit limit reached", nil)
		default:
			Error(c, http.StatusInternalServerError, err.Error(), nil)
		}
		return
	}
	Ok(c, item, nil)
}

type depositProofRequest struct {
	Proof string `json:"proof" binding:"required"`
}

func (h *WalletHandler) submitProof(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req depositProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "proof is required", nil)
		return
	}
	err := h.Wallet.SubmitDepositProof(c.Request.Context(), claims.UserID, id, strings.TrimSpace(req.Proof))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			Error(c, http.StatusNotFound, "deposit request not found", nil)
		case errors.Is(err, repository.ErrInvalidStatus):
			Error(c, http.StatusConflict, "deposit request is not awaiting payment", nil)
		default:
			Error(c, http.StatusInternalServerError, err.Error(), nil)
		}
		return
	}
	Ok(c, gin.H{"id": id, "status": "pending"}, nil)
}

func (h *WalletHandler) myDeposits(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	items, err := h.Repo.ListDepositRequestsByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *WalletHandler) requestWithdrawal(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	var req walletAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "amount is required", nil)
		return
	}
	amount, ok := parseAmount(req.Amount)
	if !ok {
		Error(c, http.StatusBadRequest, "invalid amount", nil)
		return
	}
	item, balance, err := h.Wallet.RequestWithdrawal(c.Request.Context(), claims.UserID, amount, strings.TrimSpace(req.UPIID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBelowMinimum):
			Error(c, http.StatusBadRequest, "invalid amount", nil)
		case errors.Is(err, service.ErrDailyWithdrawalLimit):
			Error(c, http.StatusTooManyRequests, "daily withdrawal limit reached", nil)
		case errors.Is(err, repository.ErrInsufficientBalance):
			Error(c, http.StatusPaymentRequired, "insufficient balance", nil)
		default:
			Error(c, http.StatusInternalServerError, err.Error(), nil)
		}
		return
	}
	Ok(c, gin.H{"withdrawal": item, "balance": balance}, nil)
}

func (h *WalletHandler) myWithdrawals(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	items, err := h.Repo.ListWithdrawalRequestsByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

func (h *WalletHandler) myTransactions(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := h.Repo.ListTransactionsByUser(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}
