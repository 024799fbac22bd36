package logger

import (
	"go.uber.org/zap/zapcore"
)

// Fields copied from a zap entry onto the stored record.
const (
	FieldReportID = "report_id"
	FieldUserID   = "user_id"
	FieldEndpoint = "endpoint"
)

// Sink receives a copy of every entry that passes the level check.
type Sink interface {
	AddLog(entry LogEntry)
}

// DBCore tees log entries to a Sink while still writing through the wrapped core.
type DBCore struct {
	zapcore.Core
	sink   Sink
	fields []zapcore.Field
}

func NewDBCore(baseCore zapcore.Core, sink Sink) zapcore.Core {
	return &DBCore{
		Core: baseCore,
		sink: sink,
	}
}

// With keeps the sink attached to child loggers and remembers their fields.
func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &DBCore{
		Core:   c.Core.With(fields),
		sink:   c.sink,
		fields: merged,
	}
}

func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	record := LogEntry{
		Level:   entry.Level,
		Message: entry.Message,
		Caller:  entry.Caller.Function,
		Time:    entry.Time,
	}

	for _, group := range [][]zapcore.Field{c.fields, fields} {
		for _, f := range group {
			record.apply(f)
		}
	}

	c.sink.AddLog(record)

	return c.Core.Write(entry, fields)
}

func (e *LogEntry) apply(f zapcore.Field) {
	switch f.Key {
	case FieldReportID:
		e.ReportID = f.String
	case FieldUserID:
		e.UserID = f.String
	case FieldEndpoint:
		e.Endpoint = f.String
	case "error":
		if err, ok := f.Interface.(error); ok {
			e.Error = err.Error()
		}
	}
}

func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
