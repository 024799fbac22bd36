package logger

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to the writer goroutine
type LogEntry struct {
	Level    zapcore.Level
	Message  string
	Caller   string
	ReportID string
	UserID   string
	Endpoint string
	Error    string
	Time     time.Time
}

// LogRecord is the stored shape of a log entry
type LogRecord struct {
	AppID        string    `bson:"app_id"`
	LogLevelID   int       `bson:"log_level_id"`
	Message      string    `bson:"message"`
	Caller       string    `bson:"caller,omitempty"`
	ReportID     string    `bson:"report_id,omitempty"`
	UserID       string    `bson:"user_id,omitempty"`
	Endpoint     string    `bson:"endpoint,omitempty"`
	Error        string    `bson:"error,omitempty"`
	CreatedOnUtc time.Time `bson:"created_on_utc"`
}

// MongoSink writes log records asynchronously; it never blocks the caller.
type MongoSink struct {
	collection *mongo.Collection
	logChan    chan LogEntry
	appID      string
}

func NewMongoSink(collection *mongo.Collection, appID string) *MongoSink {
	sink := &MongoSink{
		collection: collection,
		logChan:    make(chan LogEntry, 1000),
		appID:      appID,
	}

	go sink.processLogs()

	return sink
}

func (w *MongoSink) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

func (w *MongoSink) processLogs() {
	for entry := range w.logChan {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		// Insert errors are ignored so logging never takes the service down
		_, _ = w.collection.InsertOne(ctx, toRecord(entry, w.appID))
		cancel()
	}
}

func toRecord(entry LogEntry, appID string) LogRecord {
	created := entry.Time
	if created.IsZero() {
		created = time.Now()
	}
	return LogRecord{
		AppID:        appID,
		LogLevelID:   mapLevelToInt(entry.Level),
		Message:      entry.Message,
		Caller:       entry.Caller,
		ReportID:     entry.ReportID,
		UserID:       entry.UserID,
		Endpoint:     entry.Endpoint,
		Error:        entry.Error,
		CreatedOnUtc: created.UTC(),
	}
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
