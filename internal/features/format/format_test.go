package format

import (
	"testing"
	"time"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func report(t *testing.T, id string) *catalog.Report {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	r, err := c.Get(id)
	require.NoError(t, err)
	return r
}

func TestFormatVCA(t *testing.T) {
	r := report(t, "v_ca")
	records := []any{
		map[string]any{
			"trans_num":        float64(1001),
			"shop":             "AUI SHOP",
			"caisse":           nil,
			"trans_date":       "2024-01-15T10:30:00Z",
			"bookkeeping_date": nil,
			"total_amount":     "12.5",
			"payments":         "CASH",
		},
	}

	table := Format(r, records, Options{})
	require.Len(t, table.Rows, 1)
	row := table.Rows[0]

	assert.Equal(t, "1001", row["trans_num"])
	assert.Equal(t, 1001.0, row["Transaction Number"])
	assert.Equal(t, "12.50", row["total_amount"])
	assert.Equal(t, 12.5, row["Total Amount"])
	assert.Equal(t, "15/01/2024 10:30:00", row["trans_date"])
	assert.Equal(t, "15/01/2024 10:30:00", row["Transaction Date"])
	assert.Equal(t, "", row["caisse"])
	assert.Equal(t, "", row["bookkeeping_date"])
	assert.Equal(t, "", row["description"])
	assert.Equal(t, "CASH", row["payments"])

	assert.Equal(t, "Transaction Date", table.DefaultDimension)
	assert.Equal(t, []string{"Transaction Date", "Shop", "Article", "Client"}, table.Dimensions)
}

func TestFormatCellRules(t *testing.T) {
	r := &catalog.Report{
		ID: "t",
		Columns: []catalog.Column{
			{Key: "flag", Label: "Flag", Format: catalog.FormatFlag, Alias: true},
			{Key: "bool", Label: "Bool", Format: catalog.FormatBool},
			{Key: "num", Label: "Num", Format: catalog.FormatNumber},
			{Key: "txt", Label: "Txt", Format: catalog.FormatText},
			{Key: "when", Source: "date_heure", Label: "When", Format: catalog.FormatDateTime},
		},
	}

	tests := []struct {
		name   string
		record map[string]any
		want   Row
	}{
		{
			name:   "flag one",
			record: map[string]any{"flag": float64(1), "bool": true, "num": 2.5, "txt": false, "date_heure": "2024-03-01 08:00:00"},
			want:   Row{"flag": "Yes", "Flag": "Yes", "bool": "Yes", "num": "2.5", "txt": "No", "when": "01/03/2024 08:00:00"},
		},
		{
			name:   "flag other and nulls",
			record: map[string]any{"flag": float64(0), "bool": nil, "num": nil, "txt": nil},
			want:   Row{"flag": "No", "Flag": "No", "bool": "", "num": "", "txt": "", "when": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Format(r, []any{tt.record}, Options{})
			require.Len(t, table.Rows, 1)
			if diff := cmp.Diff(tt.want, table.Rows[0]); diff != "" {
				t.Errorf("row mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatLocation(t *testing.T) {
	r := &catalog.Report{Columns: []catalog.Column{{Key: "d", Format: catalog.FormatDateTime}}}
	loc := time.FixedZone("UTC+1", 3600)

	table := Format(r, []any{map[string]any{"d": "2024-01-15T23:30:00Z"}}, Options{Location: loc})
	assert.Equal(t, "16/01/2024 00:30:00", table.Rows[0]["d"])
}

func TestFormatMalformedRows(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := report(t, "vcadet_bo")
	records := []any{
		map[string]any{"trans_num": float64(1), "price": 3},
		"not an object",
		map[string]any{"trans_num": float64(3), "trans_date": "yesterday"},
		map[string]any{"trans_num": float64(4), "price": "7"},
	}

	table := Format(r, records, Options{Logger: zap.New(core)})
	require.Len(t, table.Rows, 4)

	assert.Equal(t, "1", table.Rows[0]["trans_num"])
	for _, i := range []int{1, 2} {
		for _, col := range r.Columns {
			assert.Equal(t, "", table.Rows[i][col.Key], "row %d column %s", i, col.Key)
		}
		_, hasAlias := table.Rows[i]["Price"]
		assert.False(t, hasAlias)
	}
	assert.Equal(t, "7.00", table.Rows[3]["price"])
	assert.Equal(t, 2, logs.FilterMessage("Malformed record").Len())
}

func TestFormatSortsByDateDescending(t *testing.T) {
	r := report(t, "vliste_transac")
	records := []any{
		map[string]any{"id": float64(1), "date": "2024-01-01T00:00:00Z"},
		map[string]any{"id": float64(2), "date": nil},
		map[string]any{"id": float64(3), "date": "2024-03-01T00:00:00Z"},
		map[string]any{"id": float64(4), "date": "2024-02-01T00:00:00Z"},
	}

	table := Format(r, records, Options{})
	var ids []any
	for _, row := range table.Rows {
		ids = append(ids, row["id"])
	}
	assert.Equal(t, []any{"3", "4", "1", "2"}, ids)
}

func TestFormatArticleMetrics(t *testing.T) {
	r := report(t, "vliste_transac")
	records := []any{
		map[string]any{"article": "Coffee"},
		map[string]any{"article": "Tea"},
		map[string]any{"article": "Coffee"},
		map[string]any{"article": ""},
	}

	table := Format(r, records, Options{})
	assert.Equal(t, []string{
		"Total Amount", "Unit Price", "Quantity", "Payment Amount",
		"Article: Coffee", "Article: Tea",
	}, table.Metrics)

	bo := Format(report(t, "vcadet_bo"), nil, Options{})
	assert.Equal(t, []string{"Price", "Quantity/Weight"}, bo.Metrics)
	assert.Empty(t, bo.Rows)
}

func TestFormatTotalsOnly(t *testing.T) {
	r := report(t, "v_ca")
	records := []any{
		map[string]any{"total_amount": 10.25},
		map[string]any{"total_amount": "4.5"},
		map[string]any{"total_amount": "n/a"},
		map[string]any{"total_amount": nil},
	}

	complete := filter.New()
	trans, _ := r.Filter("trans_date_range")
	require.NoError(t, complete.SetDate(trans, filter.Start, "2024-01-01"))
	require.NoError(t, complete.SetDate(trans, filter.End, "2024-01-31"))

	table := Format(r, records, Options{TotalsOnly: true, State: complete})
	assert.True(t, table.TotalsOnly)
	require.Len(t, table.Columns, 2)
	assert.Equal(t, "Period", table.Columns[0].Label)
	assert.Equal(t, "Total Amount", table.Columns[1].Label)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "01/01/2024 - 31/01/2024", table.Rows[0]["period"])
	assert.Equal(t, "14.75", table.Rows[0]["total"])

	partial := filter.New()
	require.NoError(t, partial.SetDate(trans, filter.Start, "2024-01-01"))
	table = Format(r, records, Options{TotalsOnly: true, State: partial})
	assert.True(t, table.TotalsOnly)
	assert.Empty(t, table.Rows)
}

func TestFormatTotalsIgnoredWithoutConfig(t *testing.T) {
	r := report(t, "vcadet_all")
	table := Format(r, []any{map[string]any{"price": 1}}, Options{TotalsOnly: true, State: filter.New()})
	assert.False(t, table.TotalsOnly)
	assert.Len(t, table.Rows, 1)
}
