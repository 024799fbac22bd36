package filter

import (
	"fmt"
	"strconv"

	"tcpos-reports/internal/features/catalog"
)

// Range is the request shape of a date-range filter.
type Range struct {
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

// FromInput builds a state from decoded JSON, as sent by API clients:
// strings, numbers and booleans for scalar filters and {"start","end"}
// objects for date ranges.
func FromInput(r *catalog.Report, in map[string]any) (State, error) {
	s := New()
	for id, raw := range in {
		f, ok := r.Filter(id)
		if !ok {
			return nil, fmt.Errorf("%s: %w", id, ErrUnknownFilter)
		}
		if err := s.apply(f, raw); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s State) apply(f catalog.Filter, raw any) error {
	if f.Type == catalog.FilterDateRange {
		rng, err := toRange(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", f.ID, err)
		}
		if err := s.SetDate(f, Start, rng.Start); err != nil {
			return err
		}
		return s.SetDate(f, End, rng.End)
	}

	switch v := raw.(type) {
	case nil:
		return s.Set(f, "")
	case string:
		return s.Set(f, v)
	case float64:
		return s.Set(f, strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		return s.Set(f, strconv.FormatBool(v))
	default:
		return fmt.Errorf("%s: %w", f.ID, ErrWrongKind)
	}
}

func toRange(raw any) (Range, error) {
	switch v := raw.(type) {
	case nil:
		return Range{}, nil
	case Range:
		return v, nil
	case map[string]any:
		var rng Range
		for key, dst := range map[string]*string{"start": &rng.Start, "end": &rng.End} {
			switch bound := v[key].(type) {
			case nil:
			case string:
				*dst = bound
			default:
				return Range{}, ErrInvalidDate
			}
		}
		return rng, nil
	}
	return Range{}, ErrWrongKind
}

// Input renders the state back into the shape accepted by FromInput.
func (s State) Input() map[string]any {
	out := make(map[string]any, len(s))
	for id, v := range s {
		switch v.Kind {
		case catalog.FilterNumber:
			out[id] = *v.Number
		case catalog.FilterBoolean:
			out[id] = *v.Bool
		case catalog.FilterDateRange:
			var rng Range
			if v.Start != nil {
				rng.Start = v.Start.Format("2006-01-02")
			}
			if v.End != nil {
				rng.End = v.End.Format("2006-01-02")
			}
			out[id] = map[string]any{"start": rng.Start, "end": rng.End}
		default:
			out[id] = v.Text
		}
	}
	return out
}
