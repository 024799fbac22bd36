package catalog

import (
	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/config"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type CatalogApi struct {
	Controller *CatalogController
	Config     *config.Config
}

func NewCatalogApi(controller *CatalogController, config *config.Config) api.Route {
	return &CatalogApi{
		Controller: controller,
		Config:     config,
	}
}

func (a *CatalogApi) Setup(app *fiber.App) {
	group := app.Group("/api/reports", middleware.AuthMiddleware(a.Config.SkipAuth))

	group.Get("/", a.Controller.List)
	group.Get("/search", a.Controller.Search)
	group.Get("/:id", a.Controller.Get)
}
