package main

import (
	"context"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/thisyearnofear/swaprunner/quotes"
	"github.com/thisyearnofear/swaprunner/routes"
	"github.com/thisyearnofear/swaprunner/swaps"
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <from-token> <to-token>",
	Short: "Preview a swap without executing it",
	Args:  cobra.ExactArgs(3),
	Run:   runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().Float64VarP(&slippageFlag, "slippage", "s", 0, "Slippage tolerance percent (default from config)")
}

func runQuote(cmd *cobra.Command, args []string) {
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

	amount, fromSym, toSym := args[0], args[1], args[2]
	fromToken, toToken, err := eng.resolveTokens(fromSym, toSym)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	slippage := slippageFlag
	if slippage == 0 {
		slippage = eng.cfg.SlippagePercent
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Discovering route..."
	s.Start()

	finder := routes.NewFinder(eng.reader, eng.policy)
	path, err := finder.FindPath(ctx, eng.profile.NetworkID, fromToken, toToken)
	if err != nil {
		s.Stop()
		printError(err)
		os.Exit(1)
	}

	s.Suffix = " Quoting..."

	inDecimals, err := eng.reader.Decimals(ctx, fromToken)
	if err != nil {
		s.Stop()
		printError(err)
		os.Exit(1)
	}
	outDecimals, err := eng.reader.Decimals(ctx, toToken)
	if err != nil {
		s.Stop()
		printError(err)
		os.Exit(1)
	}

	amountIn, err := swaps.ParseAmount(amount, inDecimals)
	if err != nil {
		s.Stop()
		printError(err)
		os.Exit(1)
	}

	quote, err := quotes.NewCalculator(eng.reader).Quote(ctx, path, amountIn, slippage, inDecimals, outDecimals, nil)
	s.Stop()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	kind := "direct"
	if !path.Direct() {
		kind = "two-hop"
	}
	printInfo("Route: %s (%d hop(s)) on %s", kind, len(path.Hops), eng.netName)
	for i, hop := range path.Hops {
		printInfo("  hop %d: provider %s pool %x", i+1, hop.Provider.Hex(), hop.PoolID[:8])
	}
	printInfo("Expected out: %s (smallest units)", quote.ExpectedOutput)
	printInfo("Minimum out:  %s (slippage %.2f%%)", quote.MinimumOutput, slippage)
	printInfo("Rate: %s %s per %s", quote.ExchangeRate, toSym, fromSym)
}
