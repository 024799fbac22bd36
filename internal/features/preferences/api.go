package preferences

import (
	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/config"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PreferencesApi struct {
	Controller *PreferencesController
	Config     *config.Config
}

func NewPreferencesApi(controller *PreferencesController, config *config.Config) api.Route {
	return &PreferencesApi{
		Controller: controller,
		Config:     config,
	}
}

func (a *PreferencesApi) Setup(app *fiber.App) {
	group := app.Group("/api/preferences", middleware.AuthMiddleware(a.Config.SkipAuth))

	group.Get("/", a.Controller.Get)
	group.Put("/", a.Controller.Update)
	group.Post("/dark-mode/toggle", a.Controller.ToggleDarkMode)
}
