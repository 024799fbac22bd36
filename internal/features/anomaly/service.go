package anomaly

import (
	"context"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/format"
	"tcpos-reports/internal/logger"

	"go.uber.org/zap"
)

type AnomalyService interface {
	Detect(ctx context.Context, reportID string, rows []format.Row) []Finding
}

type AnomalyServiceImpl struct {
	Rules  map[string][]*Rule
	Logger *zap.Logger
}

// NewAnomalyService compiles the scripted rules of every report up front so
// a broken script fails start-up instead of a request.
func NewAnomalyService(cat *catalog.Catalog, log *zap.Logger) (AnomalyService, error) {
	rules := map[string][]*Rule{}
	for _, r := range cat.Reports() {
		for _, def := range r.AnomalyRules {
			rule, err := CompileRule(def, log.With(zap.String(logger.FieldReportID, r.ID)))
			if err != nil {
				return nil, err
			}
			rules[r.ID] = append(rules[r.ID], rule)
		}
	}
	return &AnomalyServiceImpl{Rules: rules, Logger: log}, nil
}

func (s *AnomalyServiceImpl) Detect(ctx context.Context, reportID string, rows []format.Row) []Finding {
	findings := Detect(ctx, rows, s.Rules[reportID]...)
	if len(findings) > 0 {
		s.Logger.Info("Anomalies detected",
			zap.String(logger.FieldReportID, reportID),
			zap.Int("rows", len(rows)),
			zap.Int("findings", len(findings)),
		)
	}
	return findings
}
