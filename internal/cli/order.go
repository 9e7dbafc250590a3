package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hibachi-xyz/hibachi-go/hibachi"
)

func newOrderCommand(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Order placement and management (requires credentials)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all pending orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := accountClient(configFile)
			if err != nil {
				return logCommandError("order list", err)
			}
			orders, err := client.PendingOrders(cmd.Context())
			if err != nil {
				return logCommandError("order list", err)
			}
			return printJSON(cmd, orders)
		},
	})

	var statusOrderID int64
	status := &cobra.Command{
		Use:   "status",
		Short: "Show one order's details",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := accountClient(configFile)
			if err != nil {
				return logCommandError("order status", err)
			}
			order, err := client.OrderDetails(cmd.Context(), hibachi.OrderSelector{OrderID: &statusOrderID})
			if err != nil {
				return logCommandError("order status", err)
			}
			return printJSON(cmd, order)
		},
	}
	status.Flags().Int64Var(&statusOrderID, "order-id", 0, "Order id to look up")
	_ = status.MarkFlagRequired("order-id")
	cmd.AddCommand(status)

	var placeSide, placeQuantity, placePrice, placeMaxFees string
	place := &cobra.Command{
		Use:   "place <symbol>",
		Short: "Place a limit or market order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := accountConfig(configFile)
			if err != nil {
				return logCommandError("order place", err)
			}
			if err := cfg.RequireSigning(); err != nil {
				return logCommandError("order place", err)
			}
			client, err := newClient(cfg)
			if err != nil {
				return logCommandError("order place", err)
			}

			side := hibachi.Side(strings.ToUpper(placeSide))
			quantity, err := parseDecimalFlag("quantity", placeQuantity)
			if err != nil {
				return logCommandError("order place", err)
			}
			maxFees, err := parseDecimalFlag("max-fees-percent", placeMaxFees)
			if err != nil {
				return logCommandError("order place", err)
			}

			var placed *hibachi.PlacedOrder
			if placePrice == "" {
				placed, err = client.PlaceMarketOrder(cmd.Context(), hibachi.MarketOrderParams{
					Symbol:         args[0],
					Quantity:       quantity,
					Side:           side,
					MaxFeesPercent: maxFees,
				})
			} else {
				parsed, perr := parseDecimalFlag("price", placePrice)
				if perr != nil {
					return logCommandError("order place", perr)
				}
				placed, err = client.PlaceLimitOrder(cmd.Context(), hibachi.LimitOrderParams{
					Symbol:         args[0],
					Quantity:       quantity,
					Price:          parsed,
					Side:           side,
					MaxFeesPercent: maxFees,
				})
			}
			if err != nil {
				return logCommandError("order place", err)
			}
			return printJSON(cmd, placed)
		},
	}
	place.Flags().StringVar(&placeSide, "side", "", "Order side: BUY or SELL")
	place.Flags().StringVar(&placeQuantity, "quantity", "", "Order quantity")
	place.Flags().StringVar(&placePrice, "price", "", "Limit price; omit for a market order")
	place.Flags().StringVar(&placeMaxFees, "max-fees-percent", "0.05", "Maximum acceptable fee rate")
	_ = place.MarkFlagRequired("side")
	_ = place.MarkFlagRequired("quantity")
	cmd.AddCommand(place)

	var cancelOrderID int64
	cancel := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel one order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := accountConfig(configFile)
			if err != nil {
				return logCommandError("order cancel", err)
			}
			if err := cfg.RequireSigning(); err != nil {
				return logCommandError("order cancel", err)
			}
			client, err := newClient(cfg)
			if err != nil {
				return logCommandError("order cancel", err)
			}
			result, err := client.CancelOrder(cmd.Context(), hibachi.OrderSelector{OrderID: &cancelOrderID})
			if err != nil {
				return logCommandError("order cancel", err)
			}
			return printJSON(cmd, result)
		},
	}
	cancel.Flags().Int64Var(&cancelOrderID, "order-id", 0, "Order id to cancel")
	_ = cancel.MarkFlagRequired("order-id")
	cmd.AddCommand(cancel)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel-all",
		Short: "Cancel every pending order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := accountConfig(configFile)
			if err != nil {
				return logCommandError("order cancel-all", err)
			}
			if err := cfg.RequireSigning(); err != nil {
				return logCommandError("order cancel-all", err)
			}
			client, err := newClient(cfg)
			if err != nil {
				return logCommandError("order cancel-all", err)
			}
			if err := client.CancelAllOrders(cmd.Context()); err != nil {
				return logCommandError("order cancel-all", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "all pending orders cancelled")
			return err
		},
	})

	return cmd
}
