package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Game      GameConfig      `mapstructure:"game"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Broadcast BroadcastConfig `mapstructure:"broadcast"`
	Cron      CronConfig      `mapstructure:"cron"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	AdminUsername string        `mapstructure:"admin_username"`
	AdminPassword string        `mapstructure:"admin_password"`
}

type GameConfig struct {
	LockSeconds  int    `mapstructure:"lock_seconds"`
	MinStake     string `mapstructure:"min_stake"`
	SignupBonus  string `mapstructure:"signup_bonus"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

type WalletConfig struct {
	DailyDepositLimit    int           `mapstructure:"daily_deposit_limit"`
	DailyWithdrawalLimit int           `mapstructure:"daily_withdrawal_limit"`
	MinDeposit           string        `mapstructure:"min_deposit"`
	DepositOrderTTL      time.Duration `mapstructure:"deposit_order_ttl"`
}

type BroadcastConfig struct {
	SendTimeout      time.Duration `mapstructure:"send_timeout"`
	SubscriberBuffer int           `mapstructure:"subscriber_buffer"`
}

type CronConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	TrimResults    string `mapstructure:"trim_results"`
	ExpireDeposits string `mapstructure:"expire_deposits"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WINGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.admin_password", "")
	v.SetDefault("game.lock_seconds", 5)
	v.SetDefault("game.min_stake", "10")
	v.SetDefault("game.signup_bonus", "1000")
	v.SetDefault("game.history_limit", 10)
	v.SetDefault("wallet.daily_deposit_limit", 3)
	v.SetDefault("wallet.daily_withdrawal_limit", 1)
	v.SetDefault("wallet.min_deposit", "10")
	v.SetDefault("wallet.deposit_order_ttl", "24h")
	v.SetDefault("broadcast.send_timeout", "2s")
	v.SetDefault("broadcast.subscriber_buffer", 64)
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.trim_results", "@every 10m")
	v.SetDefault("cron.expire_deposits", "@every 1h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
