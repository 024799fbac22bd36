package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	CollectionPreferences   = "preferences"
	CollectionScheduledRuns = "scheduled_runs"
	CollectionRunLogs       = "scheduled_run_logs"
	CollectionLogs          = "logs"

	logRetention = 30 * 24 * time.Hour
)

// EnsureIndexes creates the indexes the repositories rely on. It runs in the
// background so a slow cluster does not delay start-up.
func EnsureIndexes(lc fx.Lifecycle, mongodb *MongodbDB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				indexes := map[string][]mongo.IndexModel{
					CollectionPreferences: {{
						Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "key", Value: 1}},
						Options: options.Index().SetUnique(true),
					}},
					CollectionScheduledRuns: {{
						Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
					}, {
						Keys: bson.D{{Key: "active", Value: 1}},
					}},
					CollectionRunLogs: {{
						Keys: bson.D{{Key: "scheduled_run_id", Value: 1}, {Key: "start_time", Value: -1}},
					}},
					CollectionLogs: {{
						Keys:    bson.D{{Key: "created_on_utc", Value: 1}},
						Options: options.Index().SetExpireAfterSeconds(int32(logRetention.Seconds())),
					}},
				}
				for collection, models := range indexes {
					if _, err := mongodb.DB.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
						logger.Warn("Failed to ensure indexes", zap.String("collection", collection), zap.Error(err))
					}
				}
			}()
			return nil
		},
	})
}
