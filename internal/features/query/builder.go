package query

import (
	"errors"
	"strings"
	"time"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
)

var ErrNoParams = errors.New("No valid filters were provided. Please enter at least one valid value.")

// Params is the JSON body sent to a report endpoint.
type Params map[string]any

const timestampLayout = "2006-01-02T15:04:05.000"

// Build translates the filter state into upstream parameters. Filters are
// visited in report order, so when two ranges share a parameter name the
// later one wins.
func Build(r *catalog.Report, state filter.State, loc *time.Location) (Params, error) {
	if loc == nil {
		loc = time.UTC
	}

	params := Params{}
	for _, f := range r.Filters {
		v, ok := state[f.ID]
		if !ok {
			continue
		}

		switch f.Type {
		case catalog.FilterDateRange:
			if v.Start != nil {
				params[f.StartParam] = StartOfDay(*v.Start, loc)
			}
			if v.End != nil {
				params[f.EndParam] = EndOfDay(*v.End, loc)
			}
		case catalog.FilterNumber:
			if v.Number != nil {
				params[f.APIParam] = *v.Number
			}
		case catalog.FilterBoolean:
			if v.Bool != nil {
				params[f.APIParam] = *v.Bool
			}
		default:
			text := v.Text
			if strings.TrimSpace(text) == "" {
				continue
			}
			if f.Uppercase {
				text = strings.ToUpper(text)
			}
			params[f.APIParam] = text
		}
	}

	if len(params) == 0 {
		return nil, ErrNoParams
	}
	return params, nil
}

// StartOfDay renders 00:00:00.000 of the day in loc as a UTC timestamp.
func StartOfDay(day time.Time, loc *time.Location) string {
	return render(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc))
}

// EndOfDay renders 23:59:59.999 of the day in loc as a UTC timestamp.
func EndOfDay(day time.Time, loc *time.Location) string {
	return render(time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, int(999*time.Millisecond), loc))
}

func render(t time.Time) string {
	return t.UTC().Format(timestampLayout) + "+00:00"
}
