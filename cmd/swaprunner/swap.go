package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/thisyearnofear/swaprunner/classify"
	"github.com/thisyearnofear/swaprunner/history"
	"github.com/thisyearnofear/swaprunner/swaps"
)

var (
	slippageFlag float64
	simulateFlag bool
	noConfirm    bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <from-token> <to-token>",
	Short: "Execute a swap through the broker",
	Long: `Swap an amount of one token for another on the selected network.

The engine first ensures the broker's allowance covers the amount,
approving exactly that amount when short. It then discovers a route
(direct, or two-hop through a routing asset), quotes it, and executes
with the slippage-derived minimum-output guard.

Examples:
  swaprunner swap 100 USDm EURm
  swaprunner swap 100 USDm EURm --slippage 1.0
  swaprunner swap 10 USDm CELO --network alfajores --simulate-on-testnet`,
	Args: cobra.ExactArgs(3),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().Float64VarP(&slippageFlag, "slippage", "s", 0, "Slippage tolerance percent (default from config)")
	swapCmd.Flags().BoolVar(&simulateFlag, "simulate-on-testnet", false, "Record a simulated result when a test network has no route")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip the confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
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

	printInfo("Swapping %s %s -> %s on %s (slippage %.2f%%)", amount, fromSym, toSym, eng.netName, slippage)

	// Advisory only; the swap itself still enforces the balance on-chain.
	if inDecimals, err := eng.reader.Decimals(ctx, fromToken); err == nil {
		if amountIn, err := swaps.ParseAmount(amount, inDecimals); err == nil {
			balance, err := eng.reader.BalanceOf(ctx, fromToken, eng.signer.Address())
			if err == nil && balance.Cmp(amountIn) < 0 {
				printWarn("Your %s balance is %s, below the requested %s.",
					fromSym, decimal.NewFromBigInt(balance, -int32(inDecimals)), amount)
			}
		}
	}

	if !noConfirm && !confirm("Proceed?") {
		printInfo("Aborted.")
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Checking allowance..."
	s.Start()

	orch := swaps.New(eng.signer, eng.reader,
		swaps.WithRoutingPolicy(eng.policy),
		swaps.WithCallbacks(swaps.Callbacks{
			OnApprovalSubmitted: func(hash common.Hash) {
				s.Suffix = fmt.Sprintf(" Approval sent (%s), waiting for confirmation...", shortHash(hash))
			},
			OnApprovalConfirmed: func() {
				s.Suffix = " Allowance ready, swapping..."
			},
			OnSwapSubmitted: func(hash common.Hash) {
				s.Suffix = fmt.Sprintf(" Swap sent (%s), waiting for confirmation...", shortHash(hash))
			},
		}),
	)

	result := orch.Swap(ctx, swaps.Request{
		FromToken:       fromToken,
		ToToken:         toToken,
		Amount:          amount,
		SlippagePercent: slippage,
	})
	s.Stop()

	simulated := false
	if !result.Success && result.TestnetRecoverable && (simulateFlag || eng.cfg.SimulateOnTestnet) {
		// The classifier only advises; substituting a simulated outcome is
		// this layer's call, and the ledger records it as such.
		simulated = true
	}

	recordAttempt(ctx, eng, amount, fromSym, toSym, result, simulated)

	switch {
	case result.Success:
		printSuccess("Swap completed.")
		if result.ApprovalTxHash != nil {
			printInfo("  approval: %s", result.ApprovalTxHash.Hex())
		}
		if result.SwapTxHash != nil {
			printInfo("  swap:     %s", result.SwapTxHash.Hex())
		}
		if result.Quote != nil {
			printInfo("  expected out: %s (min %s)", result.Quote.ExpectedOutput, result.Quote.MinimumOutput)
			printInfo("  rate: %s %s per %s", result.Quote.ExchangeRate, toSym, fromSym)
		}
	case simulated:
		printWarn("\nNo liquidity on %s — recorded a simulated swap instead.", eng.netName)
		printInfo("  %s", result.ErrorMessage)
	default:
		printError(fmt.Errorf("%s", result.ErrorMessage))
		os.Exit(1)
	}
}

func recordAttempt(ctx context.Context, eng *engine, amount, fromSym, toSym string, result swaps.Result, simulated bool) {
	if eng.cfg.DatabasePath == "" {
		return
	}
	store, err := history.Open(eng.cfg.DatabasePath)
	if err != nil {
		printWarn("history: %v", err)
		return
	}
	defer store.Close()

	record := history.Record{
		NetworkID: eng.profile.NetworkID,
		FromToken: fromSym,
		ToToken:   toSym,
		Amount:    amount,
		Simulated: simulated,
	}
	switch {
	case result.Success:
		record.Status = "completed"
	case simulated:
		record.Status = "simulated"
		record.ErrorKind = string(classify.KindRouteNotFound)
	default:
		record.Status = "failed"
		record.ErrorKind = string(result.ErrorKind)
		record.ErrorMessage = result.ErrorMessage
	}
	if result.ApprovalTxHash != nil {
		record.ApprovalTx = result.ApprovalTxHash.Hex()
	}
	if result.SwapTxHash != nil {
		record.SwapTx = result.SwapTxHash.Hex()
	}

	if _, err := store.Insert(ctx, record); err != nil {
		printWarn("history: %v", err)
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func shortHash(hash common.Hash) string {
	h := hash.Hex()
	return h[:10] + "..."
}
