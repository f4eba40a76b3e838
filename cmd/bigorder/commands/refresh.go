package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "刷新今日大笔买入数据",
	Long: `Pulls the large-buy alert feed, rewrites today's alert partition,
enriches every eligible symbol and rewrites today's enrichment partition,
then re-runs the default query so EXPORT_PATH holds the fresh result.

Example:
  go run ./cmd/bigorder refresh`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.orchestrator.Refresh(context.Background())

	PrintHeader("Refresh",
		[2]string{"Date", st.Date},
		[2]string{"State", string(st.State)},
		[2]string{"Alerts", fmt.Sprint(st.Alerts)},
		[2]string{"Symbols", fmt.Sprint(st.Symbols)},
		[2]string{"Enriched", fmt.Sprint(st.Enriched)},
		[2]string{"Failed", fmt.Sprint(st.Failed)},
		[2]string{"Duration", st.Duration.String()},
	)

	if err != nil {
		PrintError(err.Error())
		return err
	}
	if st.Failed > 0 {
		PrintWarning(fmt.Sprintf("%d symbols could not be enriched and are missing from results", st.Failed))
	}
	PrintSuccess("Refresh completed")
	PrintInfo("Exported to " + a.exporter.Path())
	return nil
}
