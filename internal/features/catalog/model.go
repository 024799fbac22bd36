package catalog

type FilterType string

const (
	FilterText      FilterType = "text"
	FilterNumber    FilterType = "number"
	FilterDateRange FilterType = "date-range"
	FilterBoolean   FilterType = "boolean"
)

// Filter describes one user-editable criterion of a report.
type Filter struct {
	ID          string     `yaml:"id" json:"id"`
	Type        FilterType `yaml:"type" json:"type"`
	Label       string     `yaml:"label" json:"label"`
	APIParam    string     `yaml:"api_param" json:"api_param"`
	Placeholder string     `yaml:"placeholder" json:"placeholder,omitempty"`
	Uppercase   bool       `yaml:"uppercase" json:"uppercase,omitempty"`
	// Upstream parameter names for the two ends of a date-range filter.
	StartParam string `yaml:"start_param" json:"start_param,omitempty"`
	EndParam   string `yaml:"end_param" json:"end_param,omitempty"`
}

type ColumnFormat string

const (
	FormatText     ColumnFormat = "text"
	FormatNumber   ColumnFormat = "number"
	FormatAmount   ColumnFormat = "amount"
	FormatDateTime ColumnFormat = "datetime"
	FormatBool     ColumnFormat = "bool"
	FormatFlag     ColumnFormat = "flag"
)

// Column maps a raw record field to a display label.
type Column struct {
	Key    string       `yaml:"key" json:"key"`
	Label  string       `yaml:"label" json:"label"`
	Source string       `yaml:"source" json:"source,omitempty"`
	Format ColumnFormat `yaml:"format" json:"format"`
	// Alias adds the value a second time under Label, which charts and
	// anomaly detection read.
	Alias bool `yaml:"alias" json:"alias,omitempty"`
}

// SourceKey is the raw record field read for this column.
func (c Column) SourceKey() string {
	if c.Source != "" {
		return c.Source
	}
	return c.Key
}

type Groups struct {
	Dates      []string `yaml:"dates" json:"dates"`
	Main       []string `yaml:"main" json:"main"`
	Additional []string `yaml:"additional" json:"additional"`
}

type Totals struct {
	Field string `yaml:"field" json:"field"`
}

type Chart struct {
	DefaultDimension string   `yaml:"default_dimension" json:"default_dimension"`
	Metrics          []string `yaml:"metrics" json:"metrics"`
	Dimensions       []string `yaml:"dimensions" json:"dimensions"`
	// ArticleMetrics adds one "Article: <name>" metric per distinct article.
	ArticleMetrics bool `yaml:"article_metrics" json:"article_metrics,omitempty"`
}

// AnomalyRule is a tengo script evaluated per row. The script sees the
// variables row and amount and flags the row by setting flag to true.
type AnomalyRule struct {
	Reason string `yaml:"reason" json:"reason"`
	Script string `yaml:"script" json:"script"`
}

type Report struct {
	ID           string        `yaml:"id" json:"id"`
	Name         string        `yaml:"name" json:"name"`
	Description  string        `yaml:"description" json:"description"`
	Endpoint     string        `yaml:"endpoint" json:"endpoint"`
	Filters      []Filter      `yaml:"filters" json:"filters"`
	Columns      []Column      `yaml:"columns" json:"columns"`
	Groups       *Groups       `yaml:"groups" json:"groups,omitempty"`
	Totals       *Totals       `yaml:"totals" json:"totals,omitempty"`
	SortBy       string        `yaml:"sort_by" json:"sort_by,omitempty"`
	Chart        Chart         `yaml:"chart" json:"chart"`
	AnomalyRules []AnomalyRule `yaml:"anomaly_rules" json:"anomaly_rules,omitempty"`
}

func (r *Report) Filter(id string) (Filter, bool) {
	for _, f := range r.Filters {
		if f.ID == id {
			return f, true
		}
	}
	return Filter{}, false
}

func (r *Report) Column(key string) (Column, bool) {
	for _, c := range r.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column{}, false
}

// TotalsEnabled reports whether the report supports totals-only mode.
func (r *Report) TotalsEnabled() bool {
	return r.Totals != nil && r.Totals.Field != ""
}

func (r *Report) DateFilters() []Filter {
	var out []Filter
	for _, f := range r.Filters {
		if f.Type == FilterDateRange {
			out = append(out, f)
		}
	}
	return out
}

// ColumnKeys lists the default visible columns in display order.
func (r *Report) ColumnKeys() []string {
	keys := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		keys[i] = c.Key
	}
	return keys
}

// GroupedFilters is the filter panel layout of a report.
type GroupedFilters struct {
	Dates      []Filter `json:"dates"`
	Main       []Filter `json:"main"`
	Additional []Filter `json:"additional"`
}

// Summary is the list view of a report.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Totals      bool   `json:"totals"`
}

func (r *Report) Summary() Summary {
	return Summary{ID: r.ID, Name: r.Name, Description: r.Description, Totals: r.TotalsEnabled()}
}
