package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"tcpos-reports/internal/features/catalog"
)

var (
	ErrUnknownFilter  = errors.New("unknown filter")
	ErrInvalidNumber  = errors.New("value is not a number")
	ErrInvalidBoolean = errors.New("value is not a boolean")
	ErrInvalidDate    = errors.New("value is not a date")
	ErrWrongKind      = errors.New("filter does not accept this kind of value")
)

type Bound string

const (
	Start Bound = "start"
	End   Bound = "end"
)

// Value is the current input of one filter. Exactly the field matching Kind
// is meaningful. Dates are calendar days stored at UTC midnight.
type Value struct {
	Kind   catalog.FilterType `json:"kind" bson:"kind"`
	Text   string             `json:"text,omitempty" bson:"text,omitempty"`
	Number *float64           `json:"number,omitempty" bson:"number,omitempty"`
	Bool   *bool              `json:"bool,omitempty" bson:"bool,omitempty"`
	Start  *time.Time         `json:"start,omitempty" bson:"start,omitempty"`
	End    *time.Time         `json:"end,omitempty" bson:"end,omitempty"`
}

func (v Value) empty() bool {
	switch v.Kind {
	case catalog.FilterNumber:
		return v.Number == nil
	case catalog.FilterBoolean:
		return v.Bool == nil
	case catalog.FilterDateRange:
		return v.Start == nil && v.End == nil
	default:
		return v.Text == ""
	}
}

// Active reports whether the value counts towards enabling submission.
func (v Value) Active() bool {
	switch v.Kind {
	case catalog.FilterNumber:
		return v.Number != nil && !math.IsNaN(*v.Number)
	case catalog.FilterBoolean:
		return v.Bool != nil
	case catalog.FilterDateRange:
		return v.Start != nil || v.End != nil
	default:
		return strings.TrimSpace(v.Text) != ""
	}
}

// Complete reports whether a date range holds both bounds.
func (v Value) Complete() bool {
	return v.Kind == catalog.FilterDateRange && v.Start != nil && v.End != nil
}

// State maps filter ids to their values. Empty values are never stored.
type State map[string]Value

func New() State {
	return State{}
}

// Set applies raw user input to a non-date filter. Empty input clears it.
func (s State) Set(f catalog.Filter, raw string) error {
	if raw == "" {
		delete(s, f.ID)
		return nil
	}

	v := Value{Kind: f.Type}
	switch f.Type {
	case catalog.FilterNumber:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return fmt.Errorf("%s: %w", f.ID, ErrInvalidNumber)
		}
		v.Number = &n
	case catalog.FilterBoolean:
		b, err := parseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.ID, err)
		}
		v.Bool = &b
	case catalog.FilterDateRange:
		return fmt.Errorf("%s: %w", f.ID, ErrWrongKind)
	default:
		v.Kind = catalog.FilterText
		if f.Uppercase {
			raw = strings.ToUpper(raw)
		}
		v.Text = raw
	}
	s[f.ID] = v
	return nil
}

// SetDate sets one bound of a date-range filter. Empty input clears the
// bound, and a range left without bounds is removed.
func (s State) SetDate(f catalog.Filter, bound Bound, raw string) error {
	if f.Type != catalog.FilterDateRange {
		return fmt.Errorf("%s: %w", f.ID, ErrWrongKind)
	}

	var day *time.Time
	if raw = strings.TrimSpace(raw); raw != "" {
		d, err := ParseDate(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.ID, err)
		}
		day = &d
	}

	v := s[f.ID]
	v.Kind = catalog.FilterDateRange
	switch bound {
	case Start:
		v.Start = day
	case End:
		v.End = day
	default:
		return fmt.Errorf("unknown bound %q", bound)
	}

	if v.empty() {
		delete(s, f.ID)
	} else {
		s[f.ID] = v
	}
	return nil
}

// CanSubmit is true when at least one filter holds an active value.
func (s State) CanSubmit() bool {
	for _, v := range s {
		if v.Active() {
			return true
		}
	}
	return false
}

func (s State) Clear() {
	for id := range s {
		delete(s, id)
	}
}

// Values returns a copy detached from the state.
func (s State) Values() State {
	out := make(State, len(s))
	for id, v := range s {
		out[id] = v
	}
	return out
}

// FirstCompleteRange returns the first of the given date filters holding
// both a start and an end.
func (s State) FirstCompleteRange(ids []string) (Value, bool) {
	for _, id := range ids {
		if v, ok := s[id]; ok && v.Complete() {
			return v, true
		}
	}
	return Value{}, false
}

// ParseDate accepts YYYY-MM-DD or RFC 3339 and keeps only the calendar day.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, ErrInvalidDate
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	}
	return false, ErrInvalidBoolean
}
