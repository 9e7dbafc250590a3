package cli

import (
	"github.com/spf13/cobra"

	"github.com/hibachi-xyz/hibachi-go/hibachi"
	"github.com/hibachi-xyz/hibachi-go/internal/config"
)

func newAccountCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account balance, positions, and history (requires credentials)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show balance, positions, and fee rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := accountClient(configFile)
			if err != nil {
				return logCommandError("account info", err)
			}
			info, err := client.AccountInfo(cmd.Context())
			if err != nil {
				return logCommandError("account info", err)
			}
			return printJSON(cmd, info)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Show net equity including unrealized PnL",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := accountClient(configFile)
			if err != nil {
				return logCommandError("account balance", err)
			}
			balance, err := client.CapitalBalance(cmd.Context())
			if err != nil {
				return logCommandError("account balance", err)
			}
			return printJSON(cmd, balance)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "trades",
		Short: "Show recent fills",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := accountClient(configFile)
			if err != nil {
				return logCommandError("account trades", err)
			}
			trades, err := client.AccountTrades(cmd.Context())
			if err != nil {
				return logCommandError("account trades", err)
			}
			return printJSON(cmd, trades)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "settlements",
		Short: "Show settled trades and funding settlements",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := accountClient(configFile)
			if err != nil {
				return logCommandError("account settlements", err)
			}
			settlements, err := client.SettlementsHistory(cmd.Context())
			if err != nil {
				return logCommandError("account settlements", err)
			}
			return printJSON(cmd, settlements)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Show recent deposits and withdrawals",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := accountClient(configFile)
			if err != nil {
				return logCommandError("account history", err)
			}
			history, err := client.CapitalHistory(cmd.Context())
			if err != nil {
				return logCommandError("account history", err)
			}
			return printJSON(cmd, history)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deposit-info",
		Short: "Show the EVM deposit address for the configured public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := accountConfig(configFile)
			if err != nil {
				return logCommandError("account deposit-info", err)
			}
			client, err := newClient(cfg)
			if err != nil {
				return logCommandError("account deposit-info", err)
			}
			info, err := client.DepositInfo(cmd.Context(), cfg.PublicKey)
			if err != nil {
				return logCommandError("account deposit-info", err)
			}
			return printJSON(cmd, info)
		},
	})

	return cmd
}

func accountConfig(configFile *string) (*config.Config, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireAccount(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func accountClient(configFile *string) (*hibachi.Client, error) {
	cfg, err := accountConfig(configFile)
	if err != nil {
		return nil, err
	}
	return newClient(cfg)
}
