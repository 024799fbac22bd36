package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"tcpos-reports/internal/config"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

var ErrReportNotFound = errors.New("report not found")

type document struct {
	Reports []Report `yaml:"reports"`
}

// Catalog is the immutable, ordered set of reports.
type Catalog struct {
	reports []Report
	byID    map[string]int
}

// NewCatalog loads the catalogue file named by the config, or the embedded
// catalogue when none is configured.
func NewCatalog(cfg *config.Config) (*Catalog, error) {
	if cfg.ReportCatalogPath == "" {
		return Default()
	}
	data, err := os.ReadFile(cfg.ReportCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(data)
}

// Default returns the embedded catalogue.
func Default() (*Catalog, error) {
	return Load(embedded)
}

// Load parses and validates a YAML catalogue.
func Load(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(doc.Reports) == 0 {
		return nil, errors.New("catalog has no reports")
	}

	c := &Catalog{byID: make(map[string]int, len(doc.Reports))}
	for i := range doc.Reports {
		r := &doc.Reports[i]
		normalize(r)
		if err := validate(r); err != nil {
			return nil, fmt.Errorf("report %q: %w", r.ID, err)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate report id %q", r.ID)
		}
		c.byID[r.ID] = i
	}
	c.reports = doc.Reports
	return c, nil
}

func normalize(r *Report) {
	for i := range r.Filters {
		f := &r.Filters[i]
		if f.Type == "" {
			f.Type = FilterText
		}
		if f.APIParam == "" {
			f.APIParam = f.ID
		}
		if f.Type == FilterDateRange {
			prefix := ""
			if p, ok := strings.CutSuffix(f.ID, "_date_range"); ok && p != "" {
				prefix = p + "_"
			}
			if f.StartParam == "" {
				f.StartParam = prefix + "start_date"
			}
			if f.EndParam == "" {
				f.EndParam = prefix + "end_date"
			}
		}
	}
	for i := range r.Columns {
		if r.Columns[i].Format == "" {
			r.Columns[i].Format = FormatText
		}
		if r.Columns[i].Label == "" {
			r.Columns[i].Label = r.Columns[i].Key
		}
	}
	if r.Chart.DefaultDimension == "" {
		r.Chart.DefaultDimension = "Transaction Date"
	}
}

func validate(r *Report) error {
	if r.ID == "" {
		return errors.New("missing id")
	}
	if r.Name == "" {
		return errors.New("missing name")
	}
	if !strings.HasPrefix(r.Endpoint, "/") {
		return fmt.Errorf("endpoint %q must start with /", r.Endpoint)
	}
	if len(r.Columns) == 0 {
		return errors.New("no columns")
	}

	filters := make(map[string]bool, len(r.Filters))
	for _, f := range r.Filters {
		if f.ID == "" {
			return errors.New("filter without id")
		}
		if filters[f.ID] {
			return fmt.Errorf("duplicate filter %q", f.ID)
		}
		filters[f.ID] = true
		switch f.Type {
		case FilterText, FilterNumber, FilterDateRange, FilterBoolean:
		default:
			return fmt.Errorf("filter %q: unknown type %q", f.ID, f.Type)
		}
	}

	columns := make(map[string]bool, len(r.Columns))
	for _, c := range r.Columns {
		if c.Key == "" {
			return errors.New("column without key")
		}
		if columns[c.Key] {
			return fmt.Errorf("duplicate column %q", c.Key)
		}
		columns[c.Key] = true
		switch c.Format {
		case FormatText, FormatNumber, FormatAmount, FormatDateTime, FormatBool, FormatFlag:
		default:
			return fmt.Errorf("column %q: unknown format %q", c.Key, c.Format)
		}
	}

	if r.Groups != nil {
		for _, group := range [][]string{r.Groups.Dates, r.Groups.Main, r.Groups.Additional} {
			for _, id := range group {
				if !filters[id] {
					return fmt.Errorf("group references unknown filter %q", id)
				}
			}
		}
	}
	if r.Totals != nil && r.Totals.Field == "" {
		return errors.New("totals without field")
	}
	if r.TotalsEnabled() && len(r.DateFilters()) == 0 {
		return errors.New("totals require a date-range filter")
	}
	if r.SortBy != "" && !columns[r.SortBy] {
		return fmt.Errorf("sort_by references unknown column %q", r.SortBy)
	}
	for _, rule := range r.AnomalyRules {
		if rule.Reason == "" || rule.Script == "" {
			return errors.New("anomaly rule needs reason and script")
		}
	}
	return nil
}

// Reports returns every report in catalogue order.
func (c *Catalog) Reports() []Report {
	out := make([]Report, len(c.reports))
	copy(out, c.reports)
	return out
}

func (c *Catalog) Get(id string) (*Report, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	r := c.reports[i]
	return &r, nil
}

// Search matches the query case-insensitively against name and description.
// A blank query matches everything.
func (c *Catalog) Search(q string) []Report {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return c.Reports()
	}
	var out []Report
	for _, r := range c.reports {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Description), q) {
			out = append(out, r)
		}
	}
	return out
}

// Group lays out the report's filters for the filter panel. Reports without
// explicit groups put date ranges first, the next four filters in main and
// the rest in additional.
func Group(r *Report) GroupedFilters {
	g := GroupedFilters{Dates: []Filter{}, Main: []Filter{}, Additional: []Filter{}}
	if r.Groups != nil {
		pick := func(ids []string) []Filter {
			out := make([]Filter, 0, len(ids))
			for _, id := range ids {
				if f, ok := r.Filter(id); ok {
					out = append(out, f)
				}
			}
			return out
		}
		g.Dates = pick(r.Groups.Dates)
		g.Main = pick(r.Groups.Main)
		g.Additional = pick(r.Groups.Additional)
		return g
	}

	for _, f := range r.Filters {
		switch {
		case f.Type == FilterDateRange:
			g.Dates = append(g.Dates, f)
		case len(g.Main) < 4:
			g.Main = append(g.Main, f)
		default:
			g.Additional = append(g.Additional, f)
		}
	}
	return g
}
