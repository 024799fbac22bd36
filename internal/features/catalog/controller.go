package catalog

import (
	"errors"

	"tcpos-reports/internal/common/api"

	"github.com/gofiber/fiber/v2"
)

type CatalogController struct {
	Service CatalogService
}

func NewCatalogController(service CatalogService) *CatalogController {
	return &CatalogController{Service: service}
}

// List godoc
// @Summary List reports
// @Description List every report in the catalogue
// @Tags reports
// @Produce json
// @Success 200 {array} Summary
// @Router /api/reports [get]
func (c *CatalogController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(c.Service.List())
}

// Search godoc
// @Summary Search reports
// @Description Case-insensitive search over report name and description
// @Tags reports
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {array} Summary
// @Router /api/reports/search [get]
func (c *CatalogController) Search(ctx *fiber.Ctx) error {
	return ctx.JSON(c.Service.Search(ctx.Query("q")))
}

// Get godoc
// @Summary Get report definition
// @Description Get a report with its filters, grouped filter layout and columns
// @Tags reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} api.ErrorBody
// @Router /api/reports/{id} [get]
func (c *CatalogController) Get(ctx *fiber.Ctx) error {
	id := ctx.Params("id")
	report, err := c.Service.Get(id)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return api.Fail(ctx, fiber.StatusNotFound, "Report not found")
		}
		return api.Fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(fiber.Map{
		"report": report,
		"groups": Group(report),
	})
}
