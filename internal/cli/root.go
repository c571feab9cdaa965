// Package cli implements the tradewave operator tool.
// It is one of the external collaborators the ledger is designed for: it
// reads config, opens the store, and calls the ledger service. Web and HTTP
// surfaces are out of scope for this module.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradewave-network/tradewave/internal/app/ledger"
	"github.com/tradewave-network/tradewave/internal/config"
	"github.com/tradewave-network/tradewave/internal/infra/observability"
	"github.com/tradewave-network/tradewave/internal/infra/sqlite"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "tradewave",
	Short: "Operate the Tradewave community-credit ledger",
	Long: `Tradewave is a local-currency marketplace ledger: entities issue
credits, accounts hold them, and every transfer is recorded in an immutable
transaction log. This tool administers a ledger store on the local machine.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config.toml (default: $TRADEWAVE_HOME/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openService loads config and opens the store plus the service around it.
// The caller owns closing the returned DB.
func openService() (*sqlite.DB, *ledger.Service, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	db, err := sqlite.OpenWith(cfg.Store.Path, sqlite.Options{
		BusyTimeout: cfg.Store.BusyTimeout(),
		MaxRetries:  cfg.Store.MaxRetries,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger store: %w", err)
	}

	var tracer *observability.Tracer
	if cfg.Metrics.Enabled {
		tracer = observability.NewTracer(observability.DefaultTracerConfig())
	}

	svc := ledger.New(ledger.Config{
		DefaultExpiry: cfg.Credit.DefaultExpiry(),
	}, db, nil, tracer)

	return db, svc, nil
}
