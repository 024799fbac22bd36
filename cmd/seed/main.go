package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"tcpos-reports/internal/config"
	"tcpos-reports/internal/database"
	"tcpos-reports/internal/features/anomaly"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/notification"
	"tcpos-reports/internal/features/preferences"
	"tcpos-reports/internal/features/report"
	"tcpos-reports/internal/features/schedule"
	"tcpos-reports/internal/features/upstream"
	"tcpos-reports/internal/logger"
	"tcpos-reports/internal/middleware"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const schedulesPath = "cmd/seed/data/schedules.json"

// Seed creates the demo scheduled runs for one user.
// Runs that already exist by name are skipped.
func Seed(
	lc fx.Lifecycle,
	scheduleService schedule.ScheduleService,
	log *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	userID := os.Getenv("SEED_USER_ID")
	if userID == "" {
		userID = middleware.DevUserID
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						log.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx := context.Background()
				log.Info("Seeding demo data", zap.String(logger.FieldUserID, userID))

				data, err := os.ReadFile(schedulesPath)
				if err != nil {
					log.Error("Failed to read schedules", zap.String("path", schedulesPath), zap.Error(err))
					return
				}
				var requests []schedule.ScheduleRequest
				if err := json.Unmarshal(data, &requests); err != nil {
					log.Error("Failed to parse schedules", zap.Error(err))
					return
				}

				existing, err := scheduleService.List(ctx, userID)
				if err != nil {
					log.Error("Failed to list scheduled runs", zap.Error(err))
					return
				}
				names := make(map[string]bool, len(existing))
				for _, run := range existing {
					names[run.Name] = true
				}

				for _, req := range requests {
					if names[req.Name] {
						log.Info("Scheduled run exists, skipping", zap.String("name", req.Name))
						continue
					}
					if _, err := scheduleService.Create(ctx, userID, req); err != nil {
						log.Error("Failed to create scheduled run", zap.String("name", req.Name), zap.Error(err))
						continue
					}
					log.Info("Scheduled run created", zap.String("name", req.Name))
				}
			}()
			return nil
		},
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			database.NewDatabase,
			logger.NewLogger,
			schedule.NewScheduler,
			preferences.NewMongoStore,
			schedule.NewScheduleRepository,
			notification.NewHub,
			catalog.NewCatalog,
			upstream.NewClient,
			anomaly.NewAnomalyService,
			notification.NewNotificationService,
			report.NewReportService,
			schedule.NewScheduleService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
