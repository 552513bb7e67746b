package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the broker's exchange providers and their pools",
	Args:  cobra.NoArgs,
	Run:   runRoutes,
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func runRoutes(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	eng, err := newEngine(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer eng.Close()

	providers, err := eng.reader.ExchangeProviders(ctx)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	printInfo("Broker %s on %s: %d exchange provider(s)", eng.reader.Address().Hex(), eng.netName, len(providers))
	for _, provider := range providers {
		exchanges, err := eng.reader.Exchanges(ctx, provider)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		printInfo("\nprovider %s (%d pool(s))", provider.Hex(), len(exchanges))
		for _, exchange := range exchanges {
			printInfo("  pool %x", exchange.ID[:8])
			for _, asset := range exchange.Assets {
				printInfo("    asset %s", asset.Hex())
			}
		}
	}
}
