package session

import (
	"sync"
	"time"

	"tcpos-reports/internal/features/anomaly"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
	"tcpos-reports/internal/features/format"
)

// Session is the state of one dashboard: the selected report, its filters
// and the last generated table. Fields are guarded by mu.
type Session struct {
	mu sync.Mutex

	ID         string
	UserID     string
	ReportID   string
	Filters    filter.State
	TotalsOnly bool
	Table      *format.Table
	Columns    []string
	Findings   []anomaly.Finding
	UpdatedAt  time.Time

	// generation changes on every report selection so a fetch started
	// before the switch can be recognised when it returns.
	generation uint64
}

// View is the JSON shape of a session.
type View struct {
	ID              string            `json:"id"`
	Report          *catalog.Summary  `json:"report,omitempty"`
	Filters         map[string]any    `json:"filters"`
	CanSubmit       bool              `json:"can_submit"`
	TotalsOnly      bool              `json:"totals_only"`
	TotalsAvailable bool              `json:"totals_available"`
	Columns         []string          `json:"columns"`
	Table           *format.Table     `json:"table,omitempty"`
	Findings        []anomaly.Finding `json:"findings"`
	Highlighted     []int             `json:"highlighted"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type SelectReportRequest struct {
	ReportID string `json:"report_id"`
}

// FilterRequest sets one filter. Bound is required for date ranges and
// ignored otherwise.
type FilterRequest struct {
	Bound filter.Bound `json:"bound"`
	Value string       `json:"value"`
}

type TotalsRequest struct {
	Enabled bool `json:"enabled"`
}
