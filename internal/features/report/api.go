package report

import (
	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/config"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	ReportController *ReportController
	Config           *config.Config
}

func NewReportApi(reportController *ReportController, config *config.Config) api.Route {
	return &ReportApi{
		ReportController: reportController,
		Config:           config,
	}
}

func (a *ReportApi) Setup(app *fiber.App) {
	group := app.Group("/api/reports", middleware.AuthMiddleware(a.Config.SkipAuth))

	group.Post("/export", a.ReportController.Export)
	group.Post("/:id/run", a.ReportController.Run)
	group.Post("/:id/anomalies", a.ReportController.DetectAnomalies)
}
