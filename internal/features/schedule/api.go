package schedule

import (
	"context"

	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/config"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
)

type ScheduleApi struct {
	controller *ScheduleController
	config     *config.Config
}

func NewScheduleApi(controller *ScheduleController, config *config.Config) api.Route {
	return &ScheduleApi{
		controller: controller,
		config:     config,
	}
}

func (h *ScheduleApi) Setup(app *fiber.App) {
	schedules := app.Group("/api/schedules", middleware.AuthMiddleware(h.config.SkipAuth))

	schedules.Post("/", h.controller.Create)
	schedules.Get("/", h.controller.List)
	schedules.Get("/:id", h.controller.Get)
	schedules.Put("/:id", h.controller.Update)
	schedules.Delete("/:id", h.controller.Delete)

	schedules.Post("/:id/execute", h.controller.Execute)
	schedules.Get("/:id/logs", h.controller.Logs)
}

// RegisterJobs loads the active runs onto the scheduler at start-up.
func RegisterJobs(lc fx.Lifecycle, service ScheduleService) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return service.RegisterActive(ctx)
		},
	})
}
