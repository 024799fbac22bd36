package report

import (
	"tcpos-reports/internal/features/anomaly"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/format"
	"tcpos-reports/internal/features/query"
)

const NoDataMessage = "No data found matching your filter criteria. Please try different filters."

type ExportFormat string

const (
	ExportXLSX ExportFormat = "xlsx"
	ExportCSV  ExportFormat = "csv"
)

type RunRequest struct {
	Filters    map[string]any `json:"filters"`
	TotalsOnly bool           `json:"totals_only"`
}

type RunResult struct {
	Report catalog.Summary `json:"report"`
	Params query.Params    `json:"params"`
	Table  format.Table    `json:"table"`
}

type AnomalyRequest struct {
	Rows []format.Row `json:"rows"`
}

type AnomalyResult struct {
	Findings    []anomaly.Finding `json:"findings"`
	Highlighted []int             `json:"highlighted"`
}

// ExportRequest carries the rows the client shows. Columns are keys of the
// report's columns in display order; all columns are exported when empty.
type ExportRequest struct {
	ReportID string       `json:"report_id"`
	Columns  []string     `json:"columns"`
	Rows     []format.Row `json:"rows"`
	Format   ExportFormat `json:"format"`
	Filename string       `json:"filename"`
}
