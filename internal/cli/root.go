// Package cli implements the hibachi command line interface.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hibachi-xyz/hibachi-go/hibachi"
	"github.com/hibachi-xyz/hibachi-go/internal/config"
	"github.com/hibachi-xyz/hibachi-go/internal/logger"
)

// Execute runs the CLI
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// NewRootCommand creates the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	var configFile string
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "hibachi",
		Short: "Command line client for the Hibachi exchange API",
		Long: `Command line client for the Hibachi exchange API

Market data commands need no credentials. Account and order commands read
credentials from a YAML config file or HIBACHI_* environment variables.

Examples:
  hibachi market info
  hibachi market prices BTC/USDT-P
  hibachi account balance --config hibachi.yaml
  hibachi order cancel --order-id 12345`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "hibachi version "+hibachi.Version)
				return err
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Show version information")

	cmd.AddCommand(newMarketCommand(&configFile))
	cmd.AddCommand(newAccountCommand(&configFile))
	cmd.AddCommand(newOrderCommand(&configFile))

	return cmd
}

// loadConfig reads the config file named by the --config flag plus the
// environment.
func loadConfig(configFile *string) (*config.Config, error) {
	path := ""
	if configFile != nil {
		path = *configFile
	}
	return config.New(path)
}

// newClient builds an SDK client from the CLI configuration.
func newClient(cfg *config.Config) (*hibachi.Client, error) {
	return hibachi.NewClient(hibachi.Config{
		APIURL:     cfg.APIURL,
		DataAPIURL: cfg.DataAPIURL,
		AccountID:  cfg.AccountID,
		APIKey:     cfg.APIKey,
		PrivateKey: cfg.PrivateKey,
	})
}

// parseDecimalFlag parses a decimal-valued flag, naming the flag in the
// error.
func parseDecimalFlag(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --%s value %q: %w", name, value, err)
	}
	return d, nil
}

// printJSON renders a result to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

// logCommandError records a failed command before the error is returned to
// cobra.
func logCommandError(command string, err error) error {
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"command": command,
			"error":   err.Error(),
		}).Error("command failed")
	}
	return err
}
