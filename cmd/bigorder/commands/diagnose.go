package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/wonny/bigorder/internal/market"
	"github.com/wonny/bigorder/internal/narrative"
)

// diagnoseCmd represents the diagnose command
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [symbol]",
	Short: "AI 诊股",
	Long: `Streams a short narrative about one stock from the configured
chat completion service (AI_API_KEY, AI_BASE_URL, AI_MODEL).

Example:
  go run ./cmd/bigorder diagnose 600519 --name 贵州茅台`,
	Args: cobra.ExactArgs(1),
	RunE: runDiagnose,
}

var diagnoseName string

func init() {
	rootCmd.AddCommand(diagnoseCmd)

	diagnoseCmd.Flags().StringVar(&diagnoseName, "name", "", "display name")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	symbol := market.Normalize(args[0])
	name := diagnoseName
	if name == "" {
		name = symbol
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.diagnoser == nil {
		fmt.Println(narrative.FailurePrefix + narrative.ErrNotConfigured.Error())
		return narrative.ErrNotConfigured
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = a.diagnoser.Diagnose(ctx, symbol, name, func(chunk string) error {
		_, err := fmt.Print(chunk)
		return err
	})
	fmt.Println()
	if err != nil {
		fmt.Println(narrative.FailurePrefix + err.Error())
	}
	return err
}
