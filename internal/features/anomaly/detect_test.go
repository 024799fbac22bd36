package anomaly

import (
	"context"
	"testing"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/format"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func amountRows(values ...any) []format.Row {
	rows := make([]format.Row, len(values))
	for i, v := range values {
		rows[i] = format.Row{"Total Amount": v}
	}
	return rows
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		rows []format.Row
		want []Finding
	}{
		{
			name: "empty",
			rows: nil,
			want: nil,
		},
		{
			name: "negative",
			rows: amountRows(10.0, -5.0, 12.0),
			want: []Finding{{Row: 1, Reason: ReasonNegative}},
		},
		{
			name: "single negative value is not an outlier",
			rows: amountRows(-1.0),
			want: []Finding{{Row: 0, Reason: ReasonNegative}},
		},
		{
			name: "outlier",
			rows: amountRows(10.0, 10.0, 10.0, 10.0, 10.0, 10.0, 10.0, 10.0, 10.0, 10.0, 10.0, 10.0, 1000.0),
			want: []Finding{{Row: 12, Reason: ReasonOutlier}},
		},
		{
			name: "identical values",
			rows: amountRows(5.0, 5.0, 5.0),
			want: nil,
		},
		{
			name: "duplicate transaction",
			rows: []format.Row{
				{"Transaction Number": 1.0, "Price": 3.0},
				{"Transaction Number": 2.0, "Price": 3.0},
				{"Transaction Number": 1.0, "Price": 3.0},
				{"Transaction Number": 1.0, "Price": 3.0},
			},
			want: []Finding{{Row: 2, Reason: ReasonDuplicate}, {Row: 3, Reason: ReasonDuplicate}},
		},
		{
			name: "amount falls back to price then amount",
			rows: []format.Row{
				{"Total Amount": 0.0, "Price": -2.0},
				{"Total Amount": "", "Price": nil, "Amount": -3.0},
			},
			want: []Finding{{Row: 0, Reason: ReasonNegative}, {Row: 1, Reason: ReasonNegative}},
		},
		{
			name: "non-numeric amount skipped",
			rows: amountRows("abc", -1.0),
			want: []Finding{{Row: 1, Reason: ReasonNegative}},
		},
		{
			name: "rows without transaction number are not duplicates",
			rows: []format.Row{{"Transaction Number": ""}, {"Transaction Number": ""}},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(context.Background(), tt.rows)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Detect() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHighlighted(t *testing.T) {
	findings := []Finding{
		{Row: 4, Reason: ReasonOutlier},
		{Row: 1, Reason: ReasonNegative},
		{Row: 4, Reason: ReasonDuplicate},
	}
	assert.Equal(t, []int{1, 4}, Highlighted(findings))
	assert.Empty(t, Highlighted(nil))
}

func TestScriptedRule(t *testing.T) {
	rule, err := CompileRule(catalog.AnomalyRule{
		Reason: "Cash over limit",
		Script: `flag = row["Payments"] == "CASH" && amount > 100`,
	}, nil)
	require.NoError(t, err)

	rows := []format.Row{
		{"Total Amount": 150.0, "Payments": "CASH"},
		{"Total Amount": 150.0, "Payments": "WALLET"},
		{"Total Amount": 50.0, "Payments": "CASH"},
	}
	got := Detect(context.Background(), rows, rule)
	assert.Equal(t, []Finding{{Row: 0, Reason: "Cash over limit"}}, got)
}

func TestScriptedRuleErrors(t *testing.T) {
	_, err := CompileRule(catalog.AnomalyRule{Reason: "broken", Script: "flag = ("}, nil)
	assert.Error(t, err)

	core, logs := observer.New(zap.WarnLevel)
	rule, err := CompileRule(catalog.AnomalyRule{
		Reason: "runtime",
		Script: `flag = amount / row["missing"]`,
	}, zap.New(core))
	require.NoError(t, err)

	assert.False(t, rule.Match(context.Background(), format.Row{}, 1))
	assert.Equal(t, 1, logs.FilterMessage("Anomaly rule failed").Len())
}

func TestServiceCompilesCatalogRules(t *testing.T) {
	cat, err := catalog.Load([]byte(`
reports:
  - id: r
    name: R
    endpoint: /r
    columns: [{key: x}]
    anomaly_rules:
      - {reason: Big, script: "flag = amount > 10"}`))
	require.NoError(t, err)

	svc, err := NewAnomalyService(cat, zap.NewNop())
	require.NoError(t, err)

	rows := amountRows(11.0, 1.0)
	assert.Equal(t, []Finding{{Row: 0, Reason: "Big"}}, svc.Detect(context.Background(), "r", rows))
	assert.Empty(t, svc.Detect(context.Background(), "other", rows))

	broken, err := catalog.Load([]byte(`
reports:
  - id: r
    name: R
    endpoint: /r
    columns: [{key: x}]
    anomaly_rules:
      - {reason: Bad, script: "flag = ("}`))
	require.NoError(t, err)
	_, err = NewAnomalyService(broken, zap.NewNop())
	assert.Error(t, err)
}
