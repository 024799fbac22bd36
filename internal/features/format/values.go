package format

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tcpos-reports/internal/features/catalog"
)

var ErrBadDate = errors.New("unparseable date")

// Layouts tried in order for datetime values. Values without a zone are
// read in the display location.
var dateInputs = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// cell returns the display value and the alias value of one field.
func (f *formatter) cell(col catalog.Column, raw any) (string, any, error) {
	switch col.Format {
	case catalog.FormatAmount:
		if n, ok := toFloat(raw); ok {
			return strconv.FormatFloat(n, 'f', 2, 64), round2(n), nil
		}
	case catalog.FormatNumber:
		if n, ok := toFloat(raw); ok {
			return strconv.FormatFloat(n, 'f', -1, 64), n, nil
		}
	case catalog.FormatDateTime:
		if isBlank(raw) {
			return "", "", nil
		}
		t, err := f.parseTime(raw)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", col.Key, err)
		}
		s := t.In(f.loc).Format(f.dateTimeLayout)
		return s, s, nil
	case catalog.FormatBool:
		if raw == nil {
			return "", "", nil
		}
		s := yesNo(truthy(raw))
		return s, s, nil
	case catalog.FormatFlag:
		n, ok := toFloat(raw)
		s := yesNo(ok && n == 1)
		return s, s, nil
	}

	s := text(raw)
	return s, s, nil
}

func (f *formatter) parseTime(raw any) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, ErrBadDate
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateInputs {
		if t, err := time.ParseInLocation(layout, s, f.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadDate
}

// toFloat reads JSON numbers and numeric strings.
func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func text(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return yesNo(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

func truthy(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true
		}
		return false
	}
	n, ok := toFloat(raw)
	return ok && n != 0
}

func isBlank(raw any) bool {
	if raw == nil {
		return true
	}
	s, ok := raw.(string)
	return ok && strings.TrimSpace(s) == ""
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func round2(n float64) float64 {
	return math.Round(n*100) / 100
}
