package system

import (
	"context"
	"time"

	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/features/catalog"

	"github.com/gofiber/fiber/v2"
)

const pingTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Reports  int    `json:"reports"`
}

type HealthController struct {
	DB      Pinger
	Catalog *catalog.Catalog
}

func NewHealthController(db Pinger, cat *catalog.Catalog) *HealthController {
	return &HealthController{DB: db, Catalog: cat}
}

// Health godoc
// @Summary      Service health
// @Description  Database reachability and the number of catalogued reports
// @Tags         system
// @Produce      json
// @Success      200  {object}  HealthStatus
// @Failure      503  {object}  HealthStatus
// @Router       /api/health [get]
func (c *HealthController) Health(ctx *fiber.Ctx) error {
	pingCtx, cancel := context.WithTimeout(ctx.UserContext(), pingTimeout)
	defer cancel()

	status := HealthStatus{Status: "ok", Database: "up", Reports: len(c.Catalog.Reports())}
	if err := c.DB.Ping(pingCtx); err != nil {
		status.Status = "degraded"
		status.Database = "down"
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(status)
	}
	return ctx.JSON(status)
}

type HealthApi struct {
	controller *HealthController
}

func NewHealthApi(controller *HealthController) api.Route {
	return &HealthApi{controller: controller}
}

func (h *HealthApi) Setup(app *fiber.App) {
	app.Get("/api/health", h.controller.Health)
}
