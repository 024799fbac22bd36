package schedule

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
	"tcpos-reports/internal/features/notification"
	"tcpos-reports/internal/features/report"
	"tcpos-reports/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	defaultLogLimit = 50
	runTimeout      = 5 * time.Minute
)

var (
	ErrInvalidSchedule = errors.New("invalid cron expression")
	ErrNameRequired    = errors.New("name is required")
	ErrNoFilters       = errors.New("at least one filter value is required")
)

// Outcome summarises one execution.
type Outcome struct {
	Rows      int `json:"rows"`
	Anomalies int `json:"anomalies"`
}

type ScheduleService interface {
	Create(ctx context.Context, userID string, req ScheduleRequest) (*ScheduledRun, error)
	Get(ctx context.Context, userID, id string) (*ScheduledRun, error)
	List(ctx context.Context, userID string) ([]ScheduledRun, error)
	Update(ctx context.Context, userID, id string, req ScheduleRequest) (*ScheduledRun, error)
	Delete(ctx context.Context, userID, id string) error
	Execute(ctx context.Context, userID, id string) (*Outcome, error)
	Logs(ctx context.Context, userID, id string, limit int) ([]RunLog, error)
	RegisterActive(ctx context.Context) error
	Registered() int
}

type ScheduleServiceImpl struct {
	Repo                ScheduleRepository
	Catalog             *catalog.Catalog
	ReportService       report.ReportService
	NotificationService notification.NotificationService
	Scheduler           *cron.Cron
	Logger              *zap.Logger

	entries map[string]cron.EntryID
	mu      sync.Mutex
}

func NewScheduleService(
	repo ScheduleRepository,
	cat *catalog.Catalog,
	reportService report.ReportService,
	notificationService notification.NotificationService,
	scheduler *cron.Cron,
	log *zap.Logger,
) ScheduleService {
	return &ScheduleServiceImpl{
		Repo:                repo,
		Catalog:             cat,
		ReportService:       reportService,
		NotificationService: notificationService,
		Scheduler:           scheduler,
		Logger:              log,
		entries:             make(map[string]cron.EntryID),
	}
}

func (s *ScheduleServiceImpl) Create(ctx context.Context, userID string, req ScheduleRequest) (*ScheduledRun, error) {
	run := &ScheduledRun{UserID: userID, Active: true}
	if err := s.apply(run, req); err != nil {
		return nil, err
	}
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now
	run.NextRun = nextRun(run.Schedule, now)

	if err := s.Repo.Create(ctx, run); err != nil {
		return nil, err
	}
	if run.Active {
		if err := s.register(run); err != nil {
			s.Logger.Error("Failed to register scheduled run", zap.String("schedule_id", run.ID.Hex()), zap.Error(err))
		}
	}
	return withInput(run), nil
}

func (s *ScheduleServiceImpl) Get(ctx context.Context, userID, id string) (*ScheduledRun, error) {
	run, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return withInput(run), nil
}

func (s *ScheduleServiceImpl) List(ctx context.Context, userID string) ([]ScheduledRun, error) {
	runs, err := s.Repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		withInput(&runs[i])
	}
	return runs, nil
}

func (s *ScheduleServiceImpl) Update(ctx context.Context, userID, id string, req ScheduleRequest) (*ScheduledRun, error) {
	run, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(run, req); err != nil {
		return nil, err
	}
	run.UpdatedAt = time.Now()
	run.NextRun = nextRun(run.Schedule, run.UpdatedAt)

	if err := s.Repo.Update(ctx, run); err != nil {
		return nil, err
	}

	s.unregister(id)
	if run.Active {
		if err := s.register(run); err != nil {
			s.Logger.Error("Failed to register scheduled run", zap.String("schedule_id", id), zap.Error(err))
		}
	}
	return withInput(run), nil
}

func (s *ScheduleServiceImpl) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	s.unregister(id)
	return s.Repo.Delete(ctx, id)
}

func (s *ScheduleServiceImpl) Execute(ctx context.Context, userID, id string) (*Outcome, error) {
	run, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, run)
}

func (s *ScheduleServiceImpl) Logs(ctx context.Context, userID, id string, limit int) ([]RunLog, error) {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return s.Repo.GetLogs(ctx, id, limit)
}

// RegisterActive puts every active run on the scheduler. Runs that fail to
// register are logged and skipped.
func (s *ScheduleServiceImpl) RegisterActive(ctx context.Context) error {
	runs, err := s.Repo.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("load active scheduled runs: %w", err)
	}
	for i := range runs {
		if err := s.register(&runs[i]); err != nil {
			s.Logger.Error("Failed to register scheduled run", zap.String("schedule_id", runs[i].ID.Hex()), zap.Error(err))
		}
	}
	s.Logger.Info("Scheduled runs registered", zap.Int("count", s.Registered()))
	return nil
}

func (s *ScheduleServiceImpl) Registered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// execute runs the report, flags anomalies in the rows and notifies the
// owner with the counts. Failures are already notified by the report run.
func (s *ScheduleServiceImpl) execute(ctx context.Context, run *ScheduledRun) (*Outcome, error) {
	id := run.ID.Hex()
	log := s.Logger.With(
		zap.String("schedule_id", id),
		zap.String(logger.FieldReportID, run.ReportID),
		zap.String(logger.FieldUserID, run.UserID),
	)

	entry := &RunLog{
		ScheduledRunID: run.ID,
		Name:           run.Name,
		StartTime:      time.Now(),
		Status:         RunStatusRunning,
	}
	if err := s.Repo.CreateLog(ctx, entry); err != nil {
		log.Warn("Failed to create run log", zap.Error(err))
	}

	outcome, execErr := s.runReport(ctx, run)

	end := time.Now()
	entry.EndTime = &end
	entry.Status = RunStatusSuccess
	if execErr != nil {
		entry.Status = RunStatusFailed
		entry.Error = execErr.Error()
		log.Error("Scheduled run failed", zap.Error(execErr))
	} else {
		entry.Rows = outcome.Rows
		entry.Anomalies = outcome.Anomalies
		log.Info("Scheduled run finished", zap.Int("rows", outcome.Rows), zap.Int("anomalies", outcome.Anomalies))
	}
	if err := s.Repo.UpdateLog(ctx, entry); err != nil {
		log.Warn("Failed to update run log", zap.Error(err))
	}
	if err := s.Repo.UpdateLastRun(ctx, id, entry.StartTime, nextRun(run.Schedule, end), entry.Status); err != nil {
		log.Warn("Failed to update last run", zap.Error(err))
	}

	return outcome, execErr
}

func (s *ScheduleServiceImpl) runReport(ctx context.Context, run *ScheduledRun) (*Outcome, error) {
	result, err := s.ReportService.Run(ctx, run.UserID, run.ReportID, run.State, run.TotalsOnly)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{Rows: len(result.Table.Rows)}
	if !result.Table.TotalsOnly && outcome.Rows > 0 {
		anomalies, err := s.ReportService.DetectAnomalies(ctx, run.ReportID, result.Table.Rows)
		if err != nil {
			return nil, err
		}
		outcome.Anomalies = len(anomalies.Highlighted)
	}

	kind := notification.NotificationTypeSuccess
	if outcome.Anomalies > 0 {
		kind = notification.NotificationTypeWarning
	}
	message := fmt.Sprintf("Scheduled run \"%s\": %d rows, %d anomalies.", run.Name, outcome.Rows, outcome.Anomalies)
	if _, err := s.NotificationService.Add(ctx, run.UserID, message, kind); err != nil {
		s.Logger.Warn("Failed to add notification", zap.String(logger.FieldUserID, run.UserID), zap.Error(err))
	}
	return outcome, nil
}

func (s *ScheduleServiceImpl) register(run *ScheduledRun) error {
	id := run.ID.Hex()
	snapshot := *run
	entryID, err := s.Scheduler.AddFunc(run.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		_, _ = s.execute(ctx, &snapshot)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[id]; ok {
		s.Scheduler.Remove(old)
	}
	s.entries[id] = entryID
	return nil
}

func (s *ScheduleServiceImpl) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[id]; ok {
		s.Scheduler.Remove(entryID)
		delete(s.entries, id)
	}
}

func (s *ScheduleServiceImpl) owned(ctx context.Context, userID, id string) (*ScheduledRun, error) {
	run, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.UserID != userID {
		return nil, ErrScheduleNotFound
	}
	return run, nil
}

// apply validates req against the catalogue and copies it onto run.
func (s *ScheduleServiceImpl) apply(run *ScheduledRun, req ScheduleRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ErrNameRequired
	}
	if _, err := cron.ParseStandard(req.Schedule); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	r, err := s.Catalog.Get(req.ReportID)
	if err != nil {
		return err
	}
	state, err := filter.FromInput(r, req.Filters)
	if err != nil {
		return err
	}
	if !state.CanSubmit() {
		return ErrNoFilters
	}

	run.Name = name
	run.ReportID = r.ID
	run.State = state
	run.TotalsOnly = req.TotalsOnly && r.TotalsEnabled()
	run.Schedule = req.Schedule
	if req.Active != nil {
		run.Active = *req.Active
	}
	return nil
}

func withInput(run *ScheduledRun) *ScheduledRun {
	run.Filters = run.State.Input()
	return run
}

func nextRun(spec string, from time.Time) *time.Time {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil
	}
	next := sched.Next(from)
	return &next
}
