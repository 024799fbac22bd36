package session

import (
	"context"

	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/config"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepSchedule = "@every 10m"

type SessionApi struct {
	SessionController *SessionController
	Config            *config.Config
}

func NewSessionApi(sessionController *SessionController, config *config.Config) api.Route {
	return &SessionApi{
		SessionController: sessionController,
		Config:            config,
	}
}

func (a *SessionApi) Setup(app *fiber.App) {
	group := app.Group("/api/sessions", middleware.AuthMiddleware(a.Config.SkipAuth))

	group.Post("/", a.SessionController.Create)
	group.Get("/", a.SessionController.List)
	group.Get("/:id", a.SessionController.Get)
	group.Delete("/:id", a.SessionController.Delete)

	group.Put("/:id/report", a.SessionController.SelectReport)
	group.Put("/:id/filters/:filter", a.SessionController.SetFilter)
	group.Delete("/:id/filters", a.SessionController.ResetFilters)
	group.Put("/:id/totals", a.SessionController.SetTotalsOnly)
	group.Post("/:id/generate", a.SessionController.Generate)
	group.Post("/:id/columns/:key/toggle", a.SessionController.ToggleColumn)
	group.Delete("/:id/columns", a.SessionController.ResetColumns)
	group.Post("/:id/anomalies", a.SessionController.DetectAnomalies)
	group.Get("/:id/export", a.SessionController.Export)
}

// RegisterSweeper removes idle sessions on the shared scheduler.
func RegisterSweeper(lc fx.Lifecycle, scheduler *cron.Cron, service SessionService, log *zap.Logger) {
	var entry cron.EntryID
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var err error
			entry, err = scheduler.AddFunc(sweepSchedule, func() { service.Sweep() })
			if err != nil {
				return err
			}
			log.Info("Session sweeper registered", zap.String("schedule", sweepSchedule))
			return nil
		},
		OnStop: func(context.Context) error {
			scheduler.Remove(entry)
			return nil
		},
	})
}
