package logger

import (
	"tcpos-reports/internal/config"
	"tcpos-reports/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. Entries go to the console and,
// through DBCore, to the "logs" collection.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Caller function names end up in the stored log records
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	sink := NewMongoSink(mongodb.DB.Collection(database.CollectionLogs), cfg.AppId)
	finalCore := NewDBCore(baseLogger.Core(), sink)

	return zap.New(finalCore, zap.AddCaller()), nil
}
