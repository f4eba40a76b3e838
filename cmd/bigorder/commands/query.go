package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/wonny/bigorder/internal/contracts"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "查询筛选结果并导出",
	Long: `Prints the aggregated result table of a day and exports the full
result to EXPORT_PATH.

Example:
  go run ./cmd/bigorder query
  go run ./cmd/bigorder query --min-amount 5000 --min-market-cap 50 --sort alert_count
  go run ./cmd/bigorder query --date 20250108 --columns symbol,name,total_amount,detail`,
	RunE: runQuery,
}

// datesCmd lists days with stored data
var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "列出已存储的交易日",
	RunE:  runDates,
}

var (
	queryMinAmount    int64
	queryMinMarketCap int64
	querySort         string
	queryDate         string
	queryColumns      string
)

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.AddCommand(datesCmd)

	queryCmd.Flags().Int64Var(&queryMinAmount, "min-amount", contracts.DefaultMinAmount, "total amount must exceed this (万)")
	queryCmd.Flags().Int64Var(&queryMinMarketCap, "min-market-cap", contracts.DefaultMinMarketCap, "market cap must reach this (亿)")
	queryCmd.Flags().StringVar(&querySort, "sort", string(contracts.SortByTotalAmount), "total_amount | pct_change | alert_count")
	queryCmd.Flags().StringVar(&queryDate, "date", "", "YYYYMMDD (default today)")
	queryCmd.Flags().StringVar(&queryColumns, "columns", "", "comma separated column names")
}

func runQuery(cmd *cobra.Command, args []string) error {
	sortKey, err := contracts.ParseSortKey(querySort)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	loc := a.cfg.Location()
	date := time.Now().In(loc)
	if queryDate != "" {
		if date, err = time.ParseInLocation(contracts.PartitionLayout, queryDate, loc); err != nil {
			return fmt.Errorf("invalid --date %q (expected YYYYMMDD)", queryDate)
		}
	}

	columns := a.session.Columns()
	if queryColumns != "" {
		columns = a.session.SetColumns(strings.Split(queryColumns, ","))
	}

	result, err := a.engine.Query(context.Background(), date, contracts.Filter{
		MinAmount:    queryMinAmount,
		MinMarketCap: queryMinMarketCap,
		SortKey:      sortKey,
	})
	if errors.Is(err, contracts.ErrNoData) {
		PrintWarning(fmt.Sprintf("no data for date %s; run `refresh` first", contracts.PartitionKey(date)))
		return nil
	}
	if err != nil {
		return err
	}

	PrintHeader("Large buy orders",
		[2]string{"Date", result.Date},
		[2]string{"Min amount", fmt.Sprintf("> %d 万", result.Filter.MinAmount)},
		[2]string{"Min cap", fmt.Sprintf(">= %d 亿", result.Filter.MinMarketCap)},
		[2]string{"Sort", string(result.Filter.SortKey)},
		[2]string{"Rows", fmt.Sprint(len(result.Rows))},
	)

	widths := make([]int, len(columns))
	table := contracts.Project(result.Rows, columns)
	cells := make([][]string, len(table))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for r, row := range table {
		cells[r] = make([]string, len(columns))
		for i, c := range columns {
			cells[r][i] = formatValue(row[c])
			if w := runewidth.StringWidth(cells[r][i]); w > widths[i] && c != "detail" {
				widths[i] = w
			}
		}
	}

	PrintTableHeader(columns, widths)
	for _, row := range cells {
		PrintTableRow(row, widths)
	}

	fmt.Println()
	PrintInfo("Exported to " + a.exporter.Path())
	return nil
}

func runDates(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dates, err := a.repo.Dates(context.Background())
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		PrintWarning("no stored days")
		return nil
	}

	items := make([]string, len(dates))
	for i, d := range dates {
		items[i] = d.Format(time.DateOnly)
	}
	PrintNumberedList(items)
	return nil
}
