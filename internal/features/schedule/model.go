package schedule

import (
	"time"

	"tcpos-reports/internal/features/filter"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// ScheduledRun is a saved filter set for one report, executed on a cron
// schedule for its owner.
type ScheduledRun struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     string             `json:"user_id" bson:"user_id"`
	Name       string             `json:"name" bson:"name"`
	ReportID   string             `json:"report_id" bson:"report_id"`
	State      filter.State       `json:"-" bson:"filters"`
	Filters    map[string]any     `json:"filters" bson:"-"`
	TotalsOnly bool               `json:"totals_only" bson:"totals_only"`
	Schedule   string             `json:"schedule" bson:"schedule"`
	Active     bool               `json:"active" bson:"active"`
	LastRun    *time.Time         `json:"last_run,omitempty" bson:"last_run,omitempty"`
	NextRun    *time.Time         `json:"next_run,omitempty" bson:"next_run,omitempty"`
	LastStatus RunStatus          `json:"last_status,omitempty" bson:"last_status,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// RunLog records a single execution of a scheduled run.
type RunLog struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ScheduledRunID primitive.ObjectID `json:"scheduled_run_id" bson:"scheduled_run_id"`
	Name           string             `json:"name" bson:"name"`
	StartTime      time.Time          `json:"start_time" bson:"start_time"`
	EndTime        *time.Time         `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Status         RunStatus          `json:"status" bson:"status"`
	Rows           int                `json:"rows" bson:"rows"`
	Anomalies      int                `json:"anomalies" bson:"anomalies"`
	Error          string             `json:"error,omitempty" bson:"error,omitempty"`
}

type ScheduleRequest struct {
	Name       string         `json:"name"`
	ReportID   string         `json:"report_id"`
	Filters    map[string]any `json:"filters"`
	TotalsOnly bool           `json:"totals_only"`
	Schedule   string         `json:"schedule"`
	Active     *bool          `json:"active"`
}
