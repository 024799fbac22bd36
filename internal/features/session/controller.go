package session

import (
	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/report"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type SessionController struct {
	SessionService SessionService
	Catalog        *catalog.Catalog
}

func NewSessionController(sessionService SessionService, cat *catalog.Catalog) *SessionController {
	return &SessionController{
		SessionService: sessionService,
		Catalog:        cat,
	}
}

// Create godoc
// @Summary Open a dashboard session
// @Tags sessions
// @Produce json
// @Success 201 {object} View
// @Router /api/sessions [post]
func (c *SessionController) Create(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusCreated).JSON(c.SessionService.Create(middleware.UserID(ctx)))
}

// List godoc
// @Summary List dashboard sessions
// @Description Sessions of the current user, most recently used first
// @Tags sessions
// @Produce json
// @Success 200 {array} View
// @Router /api/sessions [get]
func (c *SessionController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(c.SessionService.List(middleware.UserID(ctx)))
}

// Get godoc
// @Summary Get a dashboard session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} View
// @Failure 404 {object} api.ErrorBody
// @Router /api/sessions/{id} [get]
func (c *SessionController) Get(ctx *fiber.Ctx) error {
	view, err := c.SessionService.Get(middleware.UserID(ctx), ctx.Params("id"))
	return respond(ctx, view, err)
}

// Delete godoc
// @Summary Close a dashboard session
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Failure 404 {object} api.ErrorBody
// @Router /api/sessions/{id} [delete]
func (c *SessionController) Delete(ctx *fiber.Ctx) error {
	if err := c.SessionService.Delete(middleware.UserID(ctx), ctx.Params("id")); err != nil {
		return fail(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// SelectReport godoc
// @Summary Select the active report
// @Description Selecting a report, even the current one, clears filters, rows and findings
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body SelectReportRequest true "Report to select"
// @Success 200 {object} View
// @Failure 400 {object} api.ErrorBody
// @Failure 404 {object} api.ErrorBody
// @Router /api/sessions/{id}/report [put]
func (c *SessionController) SelectReport(ctx *fiber.Ctx) error {
	var req SelectReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	view, err := c.SessionService.SelectReport(middleware.UserID(ctx), ctx.Params("id"), req.ReportID)
	return respond(ctx, view, err)
}

// SetFilter godoc
// @Summary Set a filter value
// @Description Date ranges take a bound ("start" or "end"); an empty value clears it
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param filter path string true "Filter ID"
// @Param request body FilterRequest true "Filter value"
// @Success 200 {object} View
// @Failure 400 {object} api.ErrorBody
// @Failure 404 {object} api.ErrorBody
// @Router /api/sessions/{id}/filters/{filter} [put]
func (c *SessionController) SetFilter(ctx *fiber.Ctx) error {
	var req FilterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	userID, id, filterID := middleware.UserID(ctx), ctx.Params("id"), ctx.Params("filter")
	if req.Bound != "" {
		view, err := c.SessionService.SetDate(userID, id, filterID, req.Bound, req.Value)
		return respond(ctx, view, err)
	}
	view, err := c.SessionService.SetFilter(userID, id, filterID, req.Value)
	return respond(ctx, view, err)
}

// ResetFilters godoc
// @Summary Reset all filters
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} View
// @Failure 404 {object} api.ErrorBody
// @Router /api/sessions/{id}/filters [delete]
func (c *SessionController) ResetFilters(ctx *fiber.Ctx) error {
	view, err := c.SessionService.ResetFilters(middleware.UserID(ctx), ctx.Params("id"))
	return respond(ctx, view, err)
}

// SetTotalsOnly godoc
// @Summary Switch the totals-only view
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body TotalsRequest true "Totals-only flag"
// @Success 200 {object} View
// @Failure 400 {object} api.ErrorBody
// @Router /api/sessions/{id}/totals [put]
func (c *SessionController) SetTotalsOnly(ctx *fiber.Ctx) error {
	var req TotalsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	view, err := c.SessionService.SetTotalsOnly(middleware.UserID(ctx), ctx.Params("id"), req.Enabled)
	return respond(ctx, view, err)
}

// Generate godoc
// @Summary Generate the report
// @Description Query the report API with the session's filters and keep the formatted table
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} View
// @Failure 400 {object} api.ErrorBody
// @Failure 409 {object} api.ErrorBody
// @Failure 502 {object} api.ErrorBody
// @Router /api/sessions/{id}/generate [post]
func (c *SessionController) Generate(ctx *fiber.Ctx) error {
	view, err := c.SessionService.Generate(ctx.UserContext(), middleware.UserID(ctx), ctx.Params("id"))
	return respond(ctx, view, err)
}

// ToggleColumn godoc
// @Summary Show or hide a column
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param key path string true "Column key"
// @Success 200 {object} View
// @Failure 400 {object} api.ErrorBody
// @Router /api/sessions/{id}/columns/{key}/toggle [post]
func (c *SessionController) ToggleColumn(ctx *fiber.Ctx) error {
	view, err := c.SessionService.ToggleColumn(middleware.UserID(ctx), ctx.Params("id"), ctx.Params("key"))
	return respond(ctx, view, err)
}

// ResetColumns godoc
// @Summary Show the report's default columns
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} View
// @Router /api/sessions/{id}/columns [delete]
func (c *SessionController) ResetColumns(ctx *fiber.Ctx) error {
	view, err := c.SessionService.ResetColumns(middleware.UserID(ctx), ctx.Params("id"))
	return respond(ctx, view, err)
}

// DetectAnomalies godoc
// @Summary Flag anomalous rows of the current table
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} View
// @Failure 400 {object} api.ErrorBody
// @Router /api/sessions/{id}/anomalies [post]
func (c *SessionController) DetectAnomalies(ctx *fiber.Ctx) error {
	view, err := c.SessionService.DetectAnomalies(ctx.UserContext(), middleware.UserID(ctx), ctx.Params("id"))
	return respond(ctx, view, err)
}

// Export godoc
// @Summary Export the current table
// @Tags sessions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Param format query string false "xlsx (default) or csv"
// @Success 200 {file} file
// @Failure 400 {object} api.ErrorBody
// @Router /api/sessions/{id}/export [get]
func (c *SessionController) Export(ctx *fiber.Ctx) error {
	exportFormat := report.ExportFormat(ctx.Query("format", string(report.ExportXLSX)))
	data, filename, err := c.SessionService.Export(middleware.UserID(ctx), ctx.Params("id"), exportFormat)
	if err != nil {
		return fail(ctx, err)
	}
	return report.SendFile(ctx, exportFormat, filename, data)
}

func respond(ctx *fiber.Ctx, view *View, err error) error {
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(view)
}

func fail(ctx *fiber.Ctx, err error) error {
	status, message := HTTPError(err)
	return api.Fail(ctx, status, message)
}
