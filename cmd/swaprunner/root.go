package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	networkFlag string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "swaprunner",
	Short: "Execute token swaps against the on-chain broker",
	Long: `swaprunner converts one stable asset for another through the broker
contract's registered exchange providers, handling allowance approval,
route discovery (direct or two-hop), slippage guards and confirmation
tracking.

Examples:
  swaprunner swap 100 USDm EURm
  swaprunner swap 25 USDm CELO --network alfajores --slippage 1
  swaprunner quote 100 USDm EURm
  swaprunner routes
  swaprunner history`,
	Version: "0.2.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verboseFlag {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&networkFlag, "network", "n", "", "Network to operate on (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output, including RPC traffic")
}

func consoleLogger() zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).With().Timestamp().Logger()
}

func printError(err error) {
	color.Red("\nError: %v\n", err)
}

func printSuccess(format string, args ...any) {
	color.Green("\n"+format+"\n", args...)
}

func printWarn(format string, args ...any) {
	color.Yellow(format, args...)
}

func printInfo(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}
