package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"wingo/internal/auth"
	"wingo/internal/broadcast"
	"wingo/internal/config"
	cronrunner "wingo/internal/cron"
	"wingo/internal/db"
	"wingo/internal/game"
	"wingo/internal/handler"
	"wingo/internal/logger"
	gormrepository "wingo/internal/repository/gorm"
	"wingo/internal/service"
)

func main() {
	cfgPath := os.Getenv("WINGO_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("WINGO_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)
	hub := broadcast.NewHub(cfg.Broadcast.SubscriberBuffer, logger)
	gameEngine := game.NewEngine(store, logger, hub, cfg.Game.LockSeconds)

	walletSvc := &service.Wallet{
		Repo:   store,
		Logger: logger,
		Events: hub,
		Config: cfg.Wallet,
	}
	housekeeping := &service.Housekeeping{
		Repo:        store,
		Logger:      logger,
		KeepResults: cfg.Game.HistoryLimit,
		DepositTTL:  cfg.Wallet.DepositOrderTTL,
	}

	jwt := auth.JWT{Secret: []byte(cfg.Auth.JWTSecret), TokenTTL: cfg.Auth.TokenTTL}
	authMW := auth.Middleware(jwt)
	adminMW := auth.RequireAdmin()

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)

	authHandler := &handler.AuthHandler{
		Repo:          store,
		Logger:        logger,
		JWT:           jwt,
		SignupBonus:   mustDecimal(cfg.Game.SignupBonus, logger),
		AdminUsername: cfg.Auth.AdminUsername,
		AdminPassword: cfg.Auth.AdminPassword,
	}
	authHandler.Register(engine, authMW)

	gameHandler := &handler.GameHandler{
		Repo:         store,
		Logger:       logger,
		Engine:       gameEngine,
		Events:       hub,
		MinStake:     mustDecimal(cfg.Game.MinStake, logger),
		HistoryLimit: cfg.Game.HistoryLimit,
	}
	gameHandler.Register(engine, authMW)

	walletHandler := &handler.WalletHandler{Repo: store, Logger: logger, Wallet: walletSvc}
	walletHandler.Register(engine, authMW)

	adminHandler := &handler.AdminHandler{
		Repo:   store,
		Logger: logger,
		Engine: gameEngine,
		Wallet: walletSvc,
	}
	adminHandler.Register(engine, authMW, adminMW)

	wsHandler := &handler.WSHandler{
		Hub:         hub,
		Logger:      logger,
		SendTimeout: cfg.Broadcast.SendTimeout,
	}
	wsHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := gameEngine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("game engine stopped", zap.Error(err))
		}
	}()
	go func() {
		_ = hub.Run(ctx)
	}()

	if cfg.Cron.Enabled {
		cronRunner := cronrunner.New(logger, ctx)
		if _, err := cronRunner.Add(cfg.Cron.TrimResults, "trim_results", housekeeping.TrimResults); err != nil {
			logger.Warn("cron register trim results failed", zap.Error(err))
		}
		if _, err := cronRunner.Add(cfg.Cron.ExpireDeposits, "expire_deposits", housekeeping.ExpireDeposits); err != nil {
			logger.Warn("cron register expire deposits failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown failed", zap.Error(err))
	}
}

func mustDecimal(v string, logger *zap.Logger) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		logger.Warn("invalid decimal in config, using zero", zap.String("value", v))
		return decimal.Zero
	}
	return d
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
