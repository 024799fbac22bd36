package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/format"
	"tcpos-reports/pkg/utils"

	"github.com/xuri/excelize/v2"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

const (
	sheetName   = "Report"
	columnWidth = 15
)

func (f ExportFormat) ContentType() string {
	if f == ExportXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Export renders rows with the given columns as a spreadsheet or CSV file
// and returns its content and file name.
func Export(columns []catalog.Column, rows []format.Row, exportFormat ExportFormat, name string, now time.Time) ([]byte, string, error) {
	filename := fmt.Sprintf("%s_%s.%s", utils.Slugify(name), now.Format("20060102_150405"), exportFormat)

	switch exportFormat {
	case ExportXLSX:
		data, err := exportExcel(columns, rows)
		return data, filename, err
	case ExportCSV:
		data, err := exportCSV(columns, rows)
		return data, filename, err
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, exportFormat)
	}
}

func exportExcel(columns []catalog.Column, rows []format.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, col.Label); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, err
		}
	}

	for rowIdx, row := range rows {
		for colIdx, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheetName, cell, cellText(row[col.Key])); err != nil {
				return nil, err
			}
		}
	}

	for i := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, name, name, columnWidth); err != nil {
			return nil, err
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func exportCSV(columns []catalog.Column, rows []format.Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Label
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = cellText(row[col.Key])
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// resolveColumns maps keys to the report's column descriptors, or to the
// totals columns, keeping the requested order. Unknown keys are exported
// under their own name.
func resolveColumns(r *catalog.Report, keys []string) []catalog.Column {
	if len(keys) == 0 {
		return r.Columns
	}
	out := make([]catalog.Column, 0, len(keys))
	for _, key := range keys {
		col, ok := r.Column(key)
		if !ok {
			col = catalog.Column{Key: key, Label: key}
			for _, tc := range format.TotalsColumns {
				if tc.Key == key {
					col = tc
				}
			}
		}
		out = append(out, col)
	}
	return out
}
