package format

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
	"tcpos-reports/internal/logger"

	"go.uber.org/zap"
)

const (
	DefaultDateLayout     = "02/01/2006"
	DefaultDateTimeLayout = "02/01/2006 15:04:05"

	articleLabel  = "Article"
	articlePrefix = "Article: "
)

// TotalsColumns are the columns of a totals-only table.
var TotalsColumns = []catalog.Column{
	{Key: "period", Label: "Period", Format: catalog.FormatText},
	{Key: "total", Label: "Total Amount", Format: catalog.FormatAmount},
}

// Row maps column keys, and alias labels, to display values.
type Row map[string]any

type Table struct {
	Columns          []catalog.Column `json:"columns"`
	Rows             []Row            `json:"rows"`
	DefaultDimension string           `json:"default_dimension"`
	Metrics          []string         `json:"metrics"`
	Dimensions       []string         `json:"dimensions"`
	TotalsOnly       bool             `json:"totals_only,omitempty"`
	Message          string           `json:"message,omitempty"`
}

type Options struct {
	TotalsOnly     bool
	State          filter.State
	Location       *time.Location
	DateLayout     string
	DateTimeLayout string
	Logger         *zap.Logger
}

type formatter struct {
	report         *catalog.Report
	loc            *time.Location
	dateLayout     string
	dateTimeLayout string
	log            *zap.Logger
}

func newFormatter(r *catalog.Report, opts Options) *formatter {
	f := &formatter{
		report:         r,
		loc:            opts.Location,
		dateLayout:     opts.DateLayout,
		dateTimeLayout: opts.DateTimeLayout,
		log:            opts.Logger,
	}
	if f.loc == nil {
		f.loc = time.UTC
	}
	if f.dateLayout == "" {
		f.dateLayout = DefaultDateLayout
	}
	if f.dateTimeLayout == "" {
		f.dateTimeLayout = DefaultDateTimeLayout
	}
	if f.log == nil {
		f.log = zap.NewNop()
	}
	return f
}

// Format turns raw upstream records into the table of a report. A record
// that cannot be formatted becomes a blank row and the rest are kept.
func Format(r *catalog.Report, records []any, opts Options) Table {
	f := newFormatter(r, opts)
	if opts.TotalsOnly && r.TotalsEnabled() {
		return f.totals(records, opts.State)
	}

	rows := make([]Row, len(records))
	for i, rec := range records {
		row, err := f.row(rec)
		if err != nil {
			f.log.Warn("Malformed record",
				zap.String(logger.FieldReportID, r.ID),
				zap.Int("index", i),
				zap.Error(err),
			)
			row = f.blank()
		}
		rows[i] = row
	}
	if r.SortBy != "" {
		f.sortDescending(records, rows)
	}

	return Table{
		Columns:          r.Columns,
		Rows:             rows,
		DefaultDimension: r.Chart.DefaultDimension,
		Metrics:          f.metrics(rows),
		Dimensions:       append([]string(nil), r.Chart.Dimensions...),
	}
}

func (f *formatter) row(rec any) (Row, error) {
	fields, ok := rec.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record is %T, not an object", rec)
	}

	row := make(Row, len(f.report.Columns)*2)
	for _, col := range f.report.Columns {
		display, alias, err := f.cell(col, fields[col.SourceKey()])
		if err != nil {
			return nil, err
		}
		row[col.Key] = display
		if col.Alias && col.Label != col.Key {
			row[col.Label] = alias
		}
	}
	return row, nil
}

func (f *formatter) blank() Row {
	row := make(Row, len(f.report.Columns))
	for _, col := range f.report.Columns {
		row[col.Key] = ""
	}
	return row
}

// sortDescending orders rows by the raw sort field, newest or largest
// first. Rows without a usable value go last.
func (f *formatter) sortDescending(records []any, rows []Row) {
	col, ok := f.report.Column(f.report.SortBy)
	if !ok {
		return
	}

	type keyed struct {
		row   Row
		key   float64
		valid bool
	}
	items := make([]keyed, len(rows))
	for i := range rows {
		items[i].row = rows[i]
		fields, ok := records[i].(map[string]any)
		if !ok {
			continue
		}
		raw := fields[col.SourceKey()]
		if col.Format == catalog.FormatDateTime {
			if t, err := f.parseTime(raw); err == nil {
				items[i].key, items[i].valid = float64(t.UnixMilli()), true
			}
		} else if n, ok := toFloat(raw); ok {
			items[i].key, items[i].valid = n, true
		}
	}

	sort.SliceStable(items, func(a, b int) bool {
		if items[a].valid != items[b].valid {
			return items[a].valid
		}
		return items[a].key > items[b].key
	})
	for i := range items {
		rows[i] = items[i].row
	}
}

func (f *formatter) metrics(rows []Row) []string {
	metrics := append([]string(nil), f.report.Chart.Metrics...)
	if !f.report.Chart.ArticleMetrics {
		return metrics
	}

	seen := map[string]bool{}
	for _, row := range rows {
		name, _ := row[articleLabel].(string)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		metrics = append(metrics, articlePrefix+name)
	}
	return metrics
}

// totals collapses the records into one row summing the report's totals
// field over the first complete date range. Without one the table is empty.
func (f *formatter) totals(records []any, state filter.State) Table {
	t := Table{
		Columns:          append([]catalog.Column(nil), TotalsColumns...),
		Rows:             []Row{},
		DefaultDimension: "Period",
		Metrics:          []string{"Total Amount"},
		Dimensions:       []string{"Period"},
		TotalsOnly:       true,
	}

	var ids []string
	for _, df := range f.report.DateFilters() {
		ids = append(ids, df.ID)
	}
	rng, ok := state.FirstCompleteRange(ids)
	if !ok {
		return t
	}

	var sum float64
	for _, rec := range records {
		fields, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		if n, ok := toFloat(fields[f.report.Totals.Field]); ok {
			sum += n
		}
	}

	t.Rows = append(t.Rows, Row{
		"period":       rng.Start.Format(f.dateLayout) + " - " + rng.End.Format(f.dateLayout),
		"total":        strconv.FormatFloat(sum, 'f', 2, 64),
		"Total Amount": round2(sum),
	})
	return t
}
