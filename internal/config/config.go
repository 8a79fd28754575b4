package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	// DatabaseURL may also arrive from a dmsctl.toml file, so presence is
	// checked by the caller after all sources are merged.
	DatabaseURL string `env:"DATABASE_URL"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// LedgerStrategy picks how appends reconcile snapshots: "recalculate"
	// or "patch_forward". Both produce identical ledgers.
	LedgerStrategy string        `env:"LEDGER_STRATEGY" envDefault:"recalculate"`
	LockTimeout    time.Duration `env:"LOCK_TIMEOUT" envDefault:"5s"`

	StockLowThreshold      int64  `env:"STOCK_LOW_THRESHOLD" envDefault:"50"`
	StockCriticalThreshold int64  `env:"STOCK_CRITICAL_THRESHOLD" envDefault:"20"`
	WalletLowFloor         string `env:"WALLET_LOW_FLOOR" envDefault:"0"`

	NotifierIntervalS int `env:"NOTIFIER_INTERVAL_S" envDefault:"30"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
