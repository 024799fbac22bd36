package anomaly

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"tcpos-reports/internal/features/format"

	"github.com/montanaflynn/stats"
)

const (
	ReasonNegative  = "Negative value"
	ReasonOutlier   = "Outlier"
	ReasonDuplicate = "Duplicate transaction"

	transactionLabel = "Transaction Number"
	outlierSigmas    = 3
)

// Amount labels in lookup order; the first non-empty, non-zero one wins.
var amountLabels = []string{"Total Amount", "Price", "Amount"}

type Finding struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Detect flags negative amounts, amounts more than three population standard
// deviations from the mean, and repeated transaction numbers, then applies
// the scripted rules. Findings are ordered by row.
func Detect(ctx context.Context, rows []format.Row, rules ...*Rule) []Finding {
	amounts := make([]float64, len(rows))
	numeric := make([]bool, len(rows))
	var values stats.Float64Data
	for i, row := range rows {
		amounts[i], numeric[i] = amountOf(row)
		if numeric[i] {
			values = append(values, amounts[i])
		}
	}

	var mean, sigma float64
	if len(values) > 1 {
		mean, _ = stats.Mean(values)
		sigma, _ = stats.StandardDeviationPopulation(values)
	}

	var findings []Finding
	seen := map[string]bool{}
	for i, row := range rows {
		if numeric[i] {
			if amounts[i] < 0 {
				findings = append(findings, Finding{Row: i, Reason: ReasonNegative})
			}
			if len(values) > 1 && math.Abs(amounts[i]-mean) > outlierSigmas*sigma {
				findings = append(findings, Finding{Row: i, Reason: ReasonOutlier})
			}
		}
		if id, ok := transactionID(row); ok {
			if seen[id] {
				findings = append(findings, Finding{Row: i, Reason: ReasonDuplicate})
			}
			seen[id] = true
		}
		for _, rule := range rules {
			if rule.Match(ctx, row, amounts[i]) {
				findings = append(findings, Finding{Row: i, Reason: rule.Reason})
			}
		}
	}
	return findings
}

// Highlighted returns the distinct flagged row indexes in ascending order.
func Highlighted(findings []Finding) []int {
	seen := map[int]bool{}
	var rows []int
	for _, f := range findings {
		if !seen[f.Row] {
			seen[f.Row] = true
			rows = append(rows, f.Row)
		}
	}
	sort.Ints(rows)
	return rows
}

// amountOf reports false when the selected value is not numeric.
func amountOf(row format.Row) (float64, bool) {
	for _, label := range amountLabels {
		v := row[label]
		if empty(v) {
			continue
		}
		return toFloat(v)
	}
	return 0, true
}

func transactionID(row format.Row) (string, bool) {
	v := row[transactionLabel]
	if empty(v) {
		return "", false
	}
	return fmt.Sprint(v), true
}

func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return x == 0 || math.IsNaN(x)
	case bool:
		return !x
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case bool:
		return 1, true
	}
	return 0, false
}
