package main

import (
	"github.com/spf13/cobra"

	"github.com/thisyearnofear/swaprunner/networks"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the networks the engine knows about",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, profile := range networks.All() {
			kind := "production"
			if profile.IsTestNetwork {
				kind = "testnet"
			}
			pricing := "eip-1559"
			if profile.RequiresLegacyPricing {
				pricing = "legacy"
			}
			printInfo("%-14s chain %-6d %-10s %d conf  %s pricing  gas in %s",
				profile.Name, profile.NetworkID, kind, profile.ConfirmationsRequired, pricing, profile.NativeCurrencySymbol)
		}
	},
}

func init() {
	rootCmd.AddCommand(networksCmd)
}
