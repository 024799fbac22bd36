package session

import (
	"context"
	"errors"
	"slices"
	"time"

	"tcpos-reports/internal/config"
	"tcpos-reports/internal/features/anomaly"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
	"tcpos-reports/internal/features/report"
	"tcpos-reports/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrNoReport          = errors.New("select a report first")
	ErrCannotSubmit      = errors.New("please enter at least one filter value")
	ErrTotalsUnavailable = errors.New("totals are not available for the current filters")
	ErrUnknownColumn     = errors.New("unknown column")
	ErrLastColumn        = errors.New("at least one column must remain visible")
	ErrNoRows            = errors.New("no rows to work on, generate the report first")
	ErrStaleResult       = errors.New("the report changed while it was loading")
)

type SessionService interface {
	Create(userID string) *View
	List(userID string) []View
	Get(userID, id string) (*View, error)
	Delete(userID, id string) error
	SelectReport(userID, id, reportID string) (*View, error)
	SetFilter(userID, id, filterID, raw string) (*View, error)
	SetDate(userID, id, filterID string, bound filter.Bound, raw string) (*View, error)
	ResetFilters(userID, id string) (*View, error)
	SetTotalsOnly(userID, id string, on bool) (*View, error)
	Generate(ctx context.Context, userID, id string) (*View, error)
	ToggleColumn(userID, id, key string) (*View, error)
	ResetColumns(userID, id string) (*View, error)
	DetectAnomalies(ctx context.Context, userID, id string) (*View, error)
	Export(userID, id string, exportFormat report.ExportFormat) ([]byte, string, error)
	Sweep() int
}

type SessionServiceImpl struct {
	Store          *Store
	Catalog        *catalog.Catalog
	ReportService  report.ReportService
	AnomalyService anomaly.AnomalyService
	IdleTimeout    time.Duration
	Logger         *zap.Logger

	now func() time.Time
}

func NewSessionService(
	store *Store,
	cat *catalog.Catalog,
	reportService report.ReportService,
	anomalyService anomaly.AnomalyService,
	cfg *config.Config,
	log *zap.Logger,
) SessionService {
	return &SessionServiceImpl{
		Store:          store,
		Catalog:        cat,
		ReportService:  reportService,
		AnomalyService: anomalyService,
		IdleTimeout:    cfg.SessionIdleTimeout,
		Logger:         log,
		now:            time.Now,
	}
}

func (s *SessionServiceImpl) Create(userID string) *View {
	sess := s.Store.Create(userID, s.now())
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess)
}

func (s *SessionServiceImpl) List(userID string) []View {
	sessions := s.Store.List(userID)
	out := make([]View, 0, len(sessions))
	for _, sess := range sessions {
		sess.mu.Lock()
		out = append(out, *s.view(sess))
		sess.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b View) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out
}

func (s *SessionServiceImpl) Get(userID, id string) (*View, error) {
	sess, err := s.Store.Get(userID, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess), nil
}

func (s *SessionServiceImpl) Delete(userID, id string) error {
	return s.Store.Delete(userID, id)
}

// SelectReport makes reportID the active report and starts it from a clean
// slate, also when it was already active.
func (s *SessionServiceImpl) SelectReport(userID, id, reportID string) (*View, error) {
	r, err := s.Catalog.Get(reportID)
	if err != nil {
		return nil, err
	}
	sess, err := s.Store.Get(userID, id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ReportID = r.ID
	sess.Filters = filter.New()
	sess.TotalsOnly = false
	sess.Table = nil
	sess.Columns = r.ColumnKeys()
	sess.Findings = nil
	sess.generation++
	sess.UpdatedAt = s.now()
	return s.view(sess), nil
}

func (s *SessionServiceImpl) SetFilter(userID, id, filterID, raw string) (*View, error) {
	return s.update(userID, id, func(sess *Session, r *catalog.Report) error {
		f, ok := r.Filter(filterID)
		if !ok {
			return filter.ErrUnknownFilter
		}
		return sess.Filters.Set(f, raw)
	})
}

func (s *SessionServiceImpl) SetDate(userID, id, filterID string, bound filter.Bound, raw string) (*View, error) {
	return s.update(userID, id, func(sess *Session, r *catalog.Report) error {
		f, ok := r.Filter(filterID)
		if !ok {
			return filter.ErrUnknownFilter
		}
		return sess.Filters.SetDate(f, bound, raw)
	})
}

// ResetFilters clears every filter together with the table built from them.
func (s *SessionServiceImpl) ResetFilters(userID, id string) (*View, error) {
	return s.update(userID, id, func(sess *Session, _ *catalog.Report) error {
		sess.Filters.Clear()
		sess.TotalsOnly = false
		sess.Table = nil
		sess.Findings = nil
		return nil
	})
}

func (s *SessionServiceImpl) SetTotalsOnly(userID, id string, on bool) (*View, error) {
	return s.update(userID, id, func(sess *Session, r *catalog.Report) error {
		if !r.TotalsEnabled() {
			return ErrTotalsUnavailable
		}
		if on {
			if _, ok := sess.Filters.FirstCompleteRange(dateFilterIDs(r)); !ok {
				return ErrTotalsUnavailable
			}
		}
		sess.TotalsOnly = on
		return nil
	})
}

// Generate runs the active report with the current filters. The session is
// unlocked while the report API is queried; the result is dropped when
// another report was selected in the meantime.
func (s *SessionServiceImpl) Generate(ctx context.Context, userID, id string) (*View, error) {
	sess, err := s.Store.Get(userID, id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.ReportID == "" {
		sess.mu.Unlock()
		return nil, ErrNoReport
	}
	if !sess.Filters.CanSubmit() {
		sess.mu.Unlock()
		return nil, ErrCannotSubmit
	}
	reportID := sess.ReportID
	generation := sess.generation
	state := sess.Filters.Values()
	totalsOnly := sess.TotalsOnly
	sess.mu.Unlock()

	result, err := s.ReportService.Run(ctx, userID, reportID, state, totalsOnly)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.generation != generation {
		s.Logger.Info("Discarding stale report result",
			zap.String(logger.FieldReportID, reportID),
			zap.String(logger.FieldUserID, userID),
		)
		return nil, ErrStaleResult
	}
	if err != nil {
		return nil, err
	}
	table := result.Table
	sess.Table = &table
	sess.Findings = nil
	sess.UpdatedAt = s.now()
	return s.view(sess), nil
}

// ToggleColumn shows or hides a column, keeping the report's column order.
func (s *SessionServiceImpl) ToggleColumn(userID, id, key string) (*View, error) {
	return s.update(userID, id, func(sess *Session, r *catalog.Report) error {
		if _, ok := r.Column(key); !ok {
			return ErrUnknownColumn
		}
		visible := make(map[string]bool, len(sess.Columns))
		for _, k := range sess.Columns {
			visible[k] = true
		}
		if visible[key] {
			if len(sess.Columns) == 1 {
				return ErrLastColumn
			}
			delete(visible, key)
		} else {
			visible[key] = true
		}

		columns := make([]string, 0, len(visible))
		for _, k := range r.ColumnKeys() {
			if visible[k] {
				columns = append(columns, k)
			}
		}
		sess.Columns = columns
		return nil
	})
}

func (s *SessionServiceImpl) ResetColumns(userID, id string) (*View, error) {
	return s.update(userID, id, func(sess *Session, r *catalog.Report) error {
		sess.Columns = r.ColumnKeys()
		return nil
	})
}

func (s *SessionServiceImpl) DetectAnomalies(ctx context.Context, userID, id string) (*View, error) {
	sess, err := s.Store.Get(userID, id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if sess.ReportID == "" {
		sess.mu.Unlock()
		return nil, ErrNoReport
	}
	if sess.Table == nil || len(sess.Table.Rows) == 0 {
		sess.mu.Unlock()
		return nil, ErrNoRows
	}
	reportID := sess.ReportID
	generation := sess.generation
	rows := sess.Table.Rows
	sess.mu.Unlock()

	findings := s.AnomalyService.Detect(ctx, reportID, rows)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.generation != generation {
		return nil, ErrStaleResult
	}
	sess.Findings = findings
	sess.UpdatedAt = s.now()
	return s.view(sess), nil
}

// Export writes the current table with the visible columns.
func (s *SessionServiceImpl) Export(userID, id string, exportFormat report.ExportFormat) ([]byte, string, error) {
	sess, err := s.Store.Get(userID, id)
	if err != nil {
		return nil, "", err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ReportID == "" {
		return nil, "", ErrNoReport
	}
	if sess.Table == nil || len(sess.Table.Rows) == 0 {
		return nil, "", ErrNoRows
	}

	columns := sess.Columns
	if sess.Table.TotalsOnly {
		columns = nil
		for _, col := range sess.Table.Columns {
			columns = append(columns, col.Key)
		}
	}
	return s.ReportService.Export(report.ExportRequest{
		ReportID: sess.ReportID,
		Columns:  columns,
		Rows:     sess.Table.Rows,
		Format:   exportFormat,
	})
}

func (s *SessionServiceImpl) Sweep() int {
	removed := s.Store.Sweep(s.now().Add(-s.IdleTimeout))
	if removed > 0 {
		s.Logger.Info("Removed idle sessions", zap.Int("count", removed))
	}
	return removed
}

// update runs fn against a session that has an active report.
func (s *SessionServiceImpl) update(userID, id string, fn func(*Session, *catalog.Report) error) (*View, error) {
	sess, err := s.Store.Get(userID, id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.ReportID == "" {
		return nil, ErrNoReport
	}
	r, err := s.Catalog.Get(sess.ReportID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess, r); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	return s.view(sess), nil
}

// view snapshots the session; the caller holds sess.mu.
func (s *SessionServiceImpl) view(sess *Session) *View {
	v := &View{
		ID:          sess.ID,
		Filters:     sess.Filters.Input(),
		CanSubmit:   sess.Filters.CanSubmit(),
		TotalsOnly:  sess.TotalsOnly,
		Columns:     slices.Clone(sess.Columns),
		Table:       sess.Table,
		Findings:    slices.Clone(sess.Findings),
		Highlighted: anomaly.Highlighted(sess.Findings),
		UpdatedAt:   sess.UpdatedAt,
	}
	if v.Columns == nil {
		v.Columns = []string{}
	}
	if v.Findings == nil {
		v.Findings = []anomaly.Finding{}
	}
	if v.Highlighted == nil {
		v.Highlighted = []int{}
	}
	if sess.ReportID != "" {
		if r, err := s.Catalog.Get(sess.ReportID); err == nil {
			summary := r.Summary()
			v.Report = &summary
			_, complete := sess.Filters.FirstCompleteRange(dateFilterIDs(r))
			v.TotalsAvailable = r.TotalsEnabled() && complete
		}
	}
	return v
}

func dateFilterIDs(r *catalog.Report) []string {
	var ids []string
	for _, f := range r.DateFilters() {
		ids = append(ids, f.ID)
	}
	return ids
}
