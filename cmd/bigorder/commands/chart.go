package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bigorder/internal/market"
)

// chartCmd represents the chart command
var chartCmd = &cobra.Command{
	Use:   "chart [symbol]",
	Short: "分时K线及技术指标",
	Long: `Fetches the 1-minute bars of the latest trading day with MA5/10/20,
Bollinger(20, 2) and RSI(14), and prints the last rows.

Example:
  go run ./cmd/bigorder chart 600519 --name 贵州茅台 --tail 15`,
	Args: cobra.ExactArgs(1),
	RunE: runChart,
}

var (
	chartName string
	chartTail int
)

func init() {
	rootCmd.AddCommand(chartCmd)

	chartCmd.Flags().StringVar(&chartName, "name", "", "display name")
	chartCmd.Flags().IntVar(&chartTail, "tail", 10, "rows to print")
}

func runChart(cmd *cobra.Command, args []string) error {
	symbol := market.Normalize(args[0])
	if !market.IsDigits(symbol) {
		return fmt.Errorf("symbol must be numeric: %q", args[0])
	}
	name := chartName
	if name == "" {
		name = symbol
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	view := a.charts.Open(symbol, name)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := view.Wait(ctx)
	if err != nil {
		return err
	}
	if !res.Success {
		PrintError(res.Error)
		return fmt.Errorf("chart fetch failed")
	}

	exchange, board := market.Classify(symbol)
	PrintHeader(fmt.Sprintf("%s %s", symbol, name),
		[2]string{"Market", fmt.Sprintf("%s / %s", exchange, board)},
		[2]string{"Date", res.DisplayDate},
		[2]string{"Bars", fmt.Sprint(len(res.Points))},
	)

	points := res.Points
	if chartTail > 0 && len(points) > chartTail {
		points = points[len(points)-chartTail:]
	}

	columns := []string{"TIME", "CLOSE", "MA5", "MA20", "BB_UP", "BB_LOW", "RSI", "VOLUME"}
	widths := []int{5, 8, 8, 8, 8, 8, 6, 10}
	PrintTableHeader(columns, widths)
	for _, p := range points {
		PrintTableRow([]string{
			p.Time.Format("15:04"),
			formatValue(p.Close),
			formatPtr(p.MA5),
			formatPtr(p.MA20),
			formatPtr(p.BBUpper),
			formatPtr(p.BBLower),
			formatPtr(p.RSI),
			fmt.Sprintf("%.0f", p.Volume),
		}, widths)
	}
	return nil
}

func formatPtr(v *float64) string {
	if v == nil {
		return "-"
	}
	return formatValue(*v)
}
