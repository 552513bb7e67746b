package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thisyearnofear/swaprunner/config"
	"github.com/thisyearnofear/swaprunner/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent swap attempts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if cfg.DatabasePath == "" {
			printWarn("No database path configured; history is disabled.")
			return
		}

		store, err := history.Open(cfg.DatabasePath)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		defer store.Close()

		records, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		if len(records) == 0 {
			printInfo("No swap attempts recorded yet.")
			return
		}

		for _, r := range records {
			line := fmt.Sprintf("%s  chain %-6d %s -> %s  %s  %s",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				r.NetworkID, r.FromToken, r.ToToken, r.Amount, r.Status)
			if r.ErrorKind != "" {
				line += fmt.Sprintf(" (%s)", r.ErrorKind)
			}
			printInfo("%s", line)
			if r.SwapTx != "" {
				printInfo("  swap tx: %s", r.SwapTx)
			}
		}
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of attempts to show")
	rootCmd.AddCommand(historyCmd)
}
