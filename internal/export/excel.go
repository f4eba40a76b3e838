// Package export writes query snapshots to a spreadsheet file.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/wonny/bigorder/internal/contracts"
	"github.com/wonny/bigorder/pkg/logger"
)

const sheetName = "大笔买入"

// headers are the spreadsheet labels of contracts.ResultColumns
var headers = map[string]string{
	"symbol":       "代码",
	"name":         "名称",
	"exchange":     "交易所",
	"industry":     "行业",
	"market_cap":   "总市值",
	"board":        "市场板块",
	"open":         "今开",
	"latest":       "最新",
	"pct_change":   "涨幅",
	"low":          "最低",
	"high":         "最高",
	"limit_up":     "涨停",
	"alert_count":  "总成笔数",
	"total_amount": "总成交金额",
	"detail":       "时间金额明细",
}

// Header returns the display label of a result column
func Header(column string) string {
	if h, ok := headers[column]; ok {
		return h
	}
	return column
}

// Exporter overwrites one spreadsheet file with the latest full query result
type Exporter struct {
	path   string
	logger *logger.Logger

	mu sync.Mutex // serialises replacement of path
}

// NewExporter creates an exporter writing to path
func NewExporter(path string, log *logger.Logger) *Exporter {
	return &Exporter{
		path:   path,
		logger: log.WithModule("export"),
	}
}

// Path returns the export file path
func (e *Exporter) Path() string {
	return e.path
}

// Write replaces the export file with rows, every column included
func (e *Exporter) Write(rows []contracts.ResultRow) error {
	wb := excelize.NewFile()
	defer wb.Close()

	wb.SetSheetName("Sheet1", sheetName)

	for i, col := range contracts.ResultColumns {
		if err := wb.SetCellValue(sheetName, excelColumn(i)+"1", Header(col)); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, row := range rows {
		values := row.Values()
		line := r + 2
		for i, col := range contracts.ResultColumns {
			v := values[col]
			if v == nil {
				continue
			}
			if err := wb.SetCellValue(sheetName, fmt.Sprintf("%s%d", excelColumn(i), line), v); err != nil {
				return fmt.Errorf("write row %d: %w", line, err)
			}
		}
	}
	if err := wb.SetColWidth(sheetName, "A", excelColumn(len(contracts.ResultColumns)-1), 14); err != nil {
		e.logger.WithError(err).Warn("Failed to set export column width")
	}

	dir := filepath.Dir(e.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Each writer saves to its own file next to the target, then renames it over
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(e.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := wb.WriteTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("save %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, e.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", e.path, err)
	}

	e.logger.WithFields(map[string]interface{}{
		"path": e.path,
		"rows": len(rows),
	}).Debug("Export written")

	return nil
}

// excelColumn converts a zero-based index to a column name (0 → A, 26 → AA)
func excelColumn(idx int) string {
	name := ""
	for idx >= 0 {
		name = string(rune('A'+idx%26)) + name
		idx = idx/26 - 1
	}
	return name
}
