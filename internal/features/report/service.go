package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tcpos-reports/internal/config"
	"tcpos-reports/internal/features/anomaly"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
	"tcpos-reports/internal/features/format"
	"tcpos-reports/internal/features/notification"
	"tcpos-reports/internal/features/query"
	"tcpos-reports/internal/features/upstream"
	"tcpos-reports/internal/logger"

	"go.uber.org/zap"
)

type ReportService interface {
	Run(ctx context.Context, userID, reportID string, state filter.State, totalsOnly bool) (*RunResult, error)
	DetectAnomalies(ctx context.Context, reportID string, rows []format.Row) (*AnomalyResult, error)
	Export(req ExportRequest) ([]byte, string, error)
}

type ReportServiceImpl struct {
	Catalog             *catalog.Catalog
	Client              upstream.Client
	AnomalyService      anomaly.AnomalyService
	NotificationService notification.NotificationService
	Location            *time.Location
	Logger              *zap.Logger
}

func NewReportService(
	cat *catalog.Catalog,
	client upstream.Client,
	anomalyService anomaly.AnomalyService,
	notificationService notification.NotificationService,
	cfg *config.Config,
	log *zap.Logger,
) ReportService {
	return &ReportServiceImpl{
		Catalog:             cat,
		Client:              client,
		AnomalyService:      anomalyService,
		NotificationService: notificationService,
		Location:            cfg.Location(),
		Logger:              log,
	}
}

// Run builds the upstream query from the filter state, fetches the records
// once and formats them. Fetch outcomes are reported to the user's
// notifications; invalid filters are not.
func (s *ReportServiceImpl) Run(ctx context.Context, userID, reportID string, state filter.State, totalsOnly bool) (*RunResult, error) {
	r, err := s.Catalog.Get(reportID)
	if err != nil {
		return nil, err
	}

	params, err := query.Build(r, state, s.Location)
	if err != nil {
		return nil, err
	}

	log := s.Logger.With(zap.String(logger.FieldReportID, r.ID), zap.String(logger.FieldUserID, userID))

	started := time.Now()
	records, err := s.Client.Fetch(ctx, r.Endpoint, params)
	if err != nil {
		log.Error("Report fetch failed", zap.String(logger.FieldEndpoint, r.Endpoint), zap.Error(err))
		s.notify(ctx, userID, "Error loading report: "+upstream.UserMessage(err), notification.NotificationTypeError)
		return nil, fmt.Errorf("fetch %s: %w", r.ID, err)
	}

	table := format.Format(r, records, format.Options{
		TotalsOnly: totalsOnly,
		State:      state,
		Location:   s.Location,
		Logger:     log,
	})
	if len(records) == 0 {
		table.Rows = []format.Row{}
		table.Message = NoDataMessage
		s.notify(ctx, userID, NoDataMessage, notification.NotificationTypeWarning)
	} else {
		s.notify(ctx, userID, fmt.Sprintf("Report \"%s\" loaded successfully.", r.Name), notification.NotificationTypeInfo)
	}

	log.Info("Report loaded",
		zap.Int("records", len(records)),
		zap.Bool("totals_only", table.TotalsOnly),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &RunResult{Report: r.Summary(), Params: params, Table: table}, nil
}

func (s *ReportServiceImpl) DetectAnomalies(ctx context.Context, reportID string, rows []format.Row) (*AnomalyResult, error) {
	if _, err := s.Catalog.Get(reportID); err != nil {
		return nil, err
	}
	findings := s.AnomalyService.Detect(ctx, reportID, rows)
	if findings == nil {
		findings = []anomaly.Finding{}
	}
	highlighted := anomaly.Highlighted(findings)
	if highlighted == nil {
		highlighted = []int{}
	}
	return &AnomalyResult{Findings: findings, Highlighted: highlighted}, nil
}

func (s *ReportServiceImpl) Export(req ExportRequest) ([]byte, string, error) {
	r, err := s.Catalog.Get(req.ReportID)
	if err != nil {
		return nil, "", err
	}
	if req.Format == "" {
		req.Format = ExportXLSX
	}
	name := req.Filename
	if name == "" {
		name = r.Name
	}
	return Export(resolveColumns(r, req.Columns), req.Rows, req.Format, name, time.Now())
}

func (s *ReportServiceImpl) notify(ctx context.Context, userID, message string, kind notification.NotificationType) {
	if _, err := s.NotificationService.Add(ctx, userID, message, kind); err != nil {
		s.Logger.Warn("Failed to add notification", zap.String(logger.FieldUserID, userID), zap.Error(err))
	}
}

// IsUpstreamError reports whether err came from talking to the report API.
func IsUpstreamError(err error) bool {
	var transportErr *upstream.TransportError
	var statusErr *upstream.StatusError
	var payloadErr *upstream.PayloadError
	return errors.As(err, &transportErr) || errors.As(err, &statusErr) ||
		errors.As(err, &payloadErr) || errors.Is(err, upstream.ErrEmptyBody)
}
