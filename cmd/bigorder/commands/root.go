package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bigorder",
	Short: "大笔买入监控 - A股盘中大单异动看板",
	Long: `bigorder CLI

Pulls the intraday large-buy alert feed, enriches every symbol with
board, industry and quote data, stores one partition per trading day
and serves the filtered result table.

Usage:
  go run ./cmd/bigorder [command]

Examples:
  go run ./cmd/bigorder serve
  go run ./cmd/bigorder refresh
  go run ./cmd/bigorder query --min-amount 3000 --sort pct_change
  go run ./cmd/bigorder chart 600519`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
