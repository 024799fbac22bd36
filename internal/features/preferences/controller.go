package preferences

import (
	"errors"

	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type PreferencesController struct {
	Service PreferencesService
}

func NewPreferencesController(service PreferencesService) *PreferencesController {
	return &PreferencesController{Service: service}
}

// Get godoc
// @Summary Get preferences
// @Description Get the dark mode flag and page size of the current user
// @Tags preferences
// @Produce json
// @Success 200 {object} Preferences
// @Failure 500 {object} api.ErrorBody
// @Router /api/preferences [get]
func (c *PreferencesController) Get(ctx *fiber.Ctx) error {
	prefs, err := c.Service.Get(ctx.UserContext(), middleware.UserID(ctx))
	if err != nil {
		return api.Fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(prefs)
}

// Update godoc
// @Summary Update preferences
// @Description Change dark mode and/or rows per page
// @Tags preferences
// @Accept json
// @Produce json
// @Param preferences body Update true "Fields to change"
// @Success 200 {object} Preferences
// @Failure 400 {object} api.ErrorBody
// @Failure 500 {object} api.ErrorBody
// @Router /api/preferences [put]
func (c *PreferencesController) Update(ctx *fiber.Ctx) error {
	var update Update
	if err := ctx.BodyParser(&update); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	prefs, err := c.Service.Update(ctx.UserContext(), middleware.UserID(ctx), update)
	if err != nil {
		if errors.Is(err, ErrInvalidRowsPerPage) {
			return api.Fail(ctx, fiber.StatusBadRequest, err.Error())
		}
		return api.Fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(prefs)
}

// ToggleDarkMode godoc
// @Summary Toggle dark mode
// @Tags preferences
// @Produce json
// @Success 200 {object} Preferences
// @Failure 500 {object} api.ErrorBody
// @Router /api/preferences/dark-mode/toggle [post]
func (c *PreferencesController) ToggleDarkMode(ctx *fiber.Ctx) error {
	prefs, err := c.Service.ToggleDarkMode(ctx.UserContext(), middleware.UserID(ctx))
	if err != nil {
		return api.Fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(prefs)
}
