package cli

import (
	"github.com/spf13/cobra"

	"github.com/hibachi-xyz/hibachi-go/hibachi"
)

func newMarketCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market",
		Short: "Public market data queries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show exchange metadata: contracts, fees, maintenance windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketClient(configFile)
			if err != nil {
				return logCommandError("market info", err)
			}
			info, err := client.ExchangeInfo(cmd.Context())
			if err != nil {
				return logCommandError("market info", err)
			}
			return printJSON(cmd, info)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "inventory",
		Short: "Show all markets with their latest price data",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketClient(configFile)
			if err != nil {
				return logCommandError("market inventory", err)
			}
			inv, err := client.Inventory(cmd.Context())
			if err != nil {
				return logCommandError("market inventory", err)
			}
			return printJSON(cmd, inv)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prices <symbol>",
		Short: "Show mark, spot, and index prices for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketClient(configFile)
			if err != nil {
				return logCommandError("market prices", err)
			}
			prices, err := client.Prices(cmd.Context(), args[0])
			if err != nil {
				return logCommandError("market prices", err)
			}
			return printJSON(cmd, prices)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "stats <symbol>",
		Short: "Show 24h trading statistics for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketClient(configFile)
			if err != nil {
				return logCommandError("market stats", err)
			}
			stats, err := client.Stats(cmd.Context(), args[0])
			if err != nil {
				return logCommandError("market stats", err)
			}
			return printJSON(cmd, stats)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "trades <symbol>",
		Short: "Show recent public trades for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketClient(configFile)
			if err != nil {
				return logCommandError("market trades", err)
			}
			trades, err := client.RecentTrades(cmd.Context(), args[0])
			if err != nil {
				return logCommandError("market trades", err)
			}
			return printJSON(cmd, trades)
		},
	})

	var interval string
	klines := &cobra.Command{
		Use:   "klines <symbol>",
		Short: "Show candlestick data for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketClient(configFile)
			if err != nil {
				return logCommandError("market klines", err)
			}
			klines, err := client.Klines(cmd.Context(), args[0], hibachi.Interval(interval))
			if err != nil {
				return logCommandError("market klines", err)
			}
			return printJSON(cmd, klines)
		},
	}
	klines.Flags().StringVar(&interval, "interval", "1h", "Candle interval (1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w)")
	cmd.AddCommand(klines)

	cmd.AddCommand(&cobra.Command{
		Use:   "open-interest <symbol>",
		Short: "Show total outstanding contract quantity for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketClient(configFile)
			if err != nil {
				return logCommandError("market open-interest", err)
			}
			oi, err := client.OpenInterest(cmd.Context(), args[0])
			if err != nil {
				return logCommandError("market open-interest", err)
			}
			return printJSON(cmd, oi)
		},
	})

	var depth int
	var granularity string
	orderbook := &cobra.Command{
		Use:   "orderbook <symbol>",
		Short: "Show aggregated bid and ask levels for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := marketClient(configFile)
			if err != nil {
				return logCommandError("market orderbook", err)
			}
			book, err := client.Orderbook(cmd.Context(), args[0], depth, granularity)
			if err != nil {
				return logCommandError("market orderbook", err)
			}
			return printJSON(cmd, book)
		},
	}
	orderbook.Flags().IntVar(&depth, "depth", 10, "Number of levels per side (1-100)")
	orderbook.Flags().StringVar(&granularity, "granularity", "0.01", "Price aggregation granularity")
	cmd.AddCommand(orderbook)

	return cmd
}

func marketClient(configFile *string) (*hibachi.Client, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}
	return newClient(cfg)
}
