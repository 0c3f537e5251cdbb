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
	"wingo/internal/models"
	"wingo/internal/repository"
)

type AuthHandler struct {
	Repo   repository.Repository
	Logger *zap.Logger
	JWT    auth.JWT

	SignupBonus   decimal.Decimal
	AdminUsername string
	AdminPassword string
}

func (h *AuthHandler) Register(r *gin.Engine, authMW gin.HandlerFunc) {
	g := r.Group("/api/auth")
	g.POST("/register", h.register)
	g.POST("/login", h.login)
	g.POST("/admin/login", h.adminLogin)
	g.GET("/profile", authMW, h.profile)
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userView struct {
	ID        uint64          `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Balance   decimal.Decimal `json:"balance"`
	IsAdmin   bool            `json:"is_admin"`
	CreatedAt time.Time       `json:"created_at"`
}

func viewUser(u *models.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Balance:   u.Balance,
		IsAdmin:   u.IsAdmin,
		CreatedAt: u.CreatedAt,
	}
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "username, email and password are required", nil)
		return
	}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if username == "" || email == "" || len(req.Password) < 6 {
		Error(c, http.StatusBadRequest, "invalid username, email or password", nil)
		return
	}

	exists, err := h.Repo.UserExists(c.Request.Context(), username, email)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if exists {
		Error(c, http.StatusConflict, "username or email already taken", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Balance:      decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.Repo.CreateUser(c.Request.Context(), user); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if h.SignupBonus.IsPositive() {
		balance, err := h.Repo.Credit(c.Request.Context(), user.ID, h.SignupBonus,
			models.TxTypeBonus, "", "signup bonus")
		if err != nil {
			if h.Logger != nil {
				h.Logger.Error("signup bonus credit failed", zap.Uint64("user_id", user.ID), zap.Error(err))
			}
		} else {
			user.Balance = balance
		}
	}

	token, expiresAt, err := h.JWT.Sign(auth.Claims{UserID: user.ID, Username: user.Username})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if h.Logger != nil {
		h.Logger.Info("user registered", zap.Uint64("user_id", user.ID), zap.String("username", username))
	}
	Ok(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       viewUser(user),
	}, nil)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "username and password are required", nil)
		return
	}
	user, err := h.Repo.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			Error(c, http.StatusUnauthorized, "invalid credentials", nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, expiresAt, err := h.JWT.Sign(auth.Claims{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"user":       viewUser(user),
	}, nil)
}

// adminLogin authenticates against the operator credentials from config, not
// the users table. The issued token carries the admin flag.
func (h *AuthHandler) adminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "username and password are required", nil)
		return
	}
	if h.AdminPassword == "" || req.Username != h.AdminUsername || req.Password != h.AdminPassword {
		Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	token, expiresAt, err := h.JWT.Sign(auth.Claims{Username: h.AdminUsername, IsAdmin: true})
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"token": token, "expires_at": expiresAt}, nil)
}

func (h *AuthHandler) profile(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.UserID == 0 {
		Error(c, http.StatusUnauthorized, "missing user", nil)
		return
	}
	user, err := h.Repo.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			Error(c, http.StatusNotFound, "user not found", nil)
			return
		}
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, viewUser(user), nil)
}
