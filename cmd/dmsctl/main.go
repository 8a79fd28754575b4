package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/plantdesk/dms/internal/config"
	"github.com/plantdesk/dms/internal/domain"
	"github.com/plantdesk/dms/internal/ledger"
	"github.com/plantdesk/dms/internal/logging"
	"github.com/plantdesk/dms/internal/repository"
	"github.com/plantdesk/dms/internal/service"
)

var (
	configPath string
	logLevel   string
	actor      string
)

var rootCmd = &cobra.Command{
	Use:           "dmsctl",
	Short:         "Operations tooling for the distributor management backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitTo(os.Stderr, "dmsctl", logLevel, "production")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a dmsctl.toml file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "dmsctl", "operator name recorded on mutations")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "dmsctl:", err)
		os.Exit(1)
	}
}

// fileConfig mirrors dmsctl.toml. Set fields override what config.Load read
// from the environment; everything else keeps its env value or default.
type fileConfig struct {
	DatabaseURL    string `toml:"database_url"`
	LedgerStrategy string `toml:"ledger_strategy"`
	LockTimeout    string `toml:"lock_timeout"`
}

func (f fileConfig) apply(cfg *config.Config) error {
	if f.DatabaseURL != "" {
		cfg.DatabaseURL = f.DatabaseURL
	}
	if f.LedgerStrategy != "" {
		cfg.LedgerStrategy = f.LedgerStrategy
	}
	if f.LockTimeout != "" {
		timeout, err := time.ParseDuration(f.LockTimeout)
		if err != nil {
			return fmt.Errorf("parse lock_timeout %q: %w", f.LockTimeout, err)
		}
		cfg.LockTimeout = timeout
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		var fc fileConfig
		if _, err := toml.DecodeFile(configPath, &fc); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		if err := fc.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database url not set: pass --config or set DATABASE_URL")
	}
	return cfg, nil
}

type runtime struct {
	cfg     *config.Config
	db      *sql.DB
	wallets *service.WalletService
	stock   *service.StockService
}

// withRuntime loads config, opens the pool, and hands fn the wired services.
// The pool closes when fn returns.
func withRuntime(ctx context.Context, fn func(rt *runtime) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	transactions := repository.NewWalletTransactionRepository(db)
	engine := ledger.NewEngine(
		db,
		transactions,
		repository.NewWalletRepository(db),
		ledger.NewLocker(cfg.LockTimeout),
		ledger.Strategy(cfg.LedgerStrategy),
	)

	audits := repository.NewAuditRepository(db)
	return fn(&runtime{
		cfg:     cfg,
		db:      db,
		wallets: service.NewWalletService(engine, transactions, audits),
		stock:   service.NewStockService(db, repository.NewSKURepository(db), repository.NewStockRepository(db), audits),
	})
}

func parseAccountRef(kind, id string) (domain.AccountRef, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.AccountRef{}, fmt.Errorf("invalid account id %q: %w", id, err)
	}
	switch kind {
	case "distributor":
		return domain.DistributorRef(parsed), nil
	case "store":
		return domain.StoreRef(parsed), nil
	default:
		return domain.AccountRef{}, fmt.Errorf("unknown account kind %q (want distributor or store)", kind)
	}
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// endOfDay pushes a calendar date to the last representable instant of that
// day, so an inclusive range check keeps same-day timestamps.
func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Microsecond)
}
