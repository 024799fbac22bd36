package report

import (
	"fmt"

	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
	Catalog       *catalog.Catalog
}

func NewReportController(reportService ReportService, cat *catalog.Catalog) *ReportController {
	return &ReportController{
		ReportService: reportService,
		Catalog:       cat,
	}
}

// Run godoc
// @Summary Run a report
// @Description Query the report API with the given filters and return the formatted table
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param request body RunRequest true "Filters and totals-only flag"
// @Success 200 {object} RunResult
// @Failure 400 {object} api.ErrorBody
// @Failure 404 {object} api.ErrorBody
// @Failure 502 {object} api.ErrorBody
// @Router /api/reports/{id}/run [post]
func (c *ReportController) Run(ctx *fiber.Ctx) error {
	var req RunRequest
	if err := ctx.BodyParser(&req); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	r, err := c.Catalog.Get(ctx.Params("id"))
	if err != nil {
		return fail(ctx, err)
	}
	state, err := filter.FromInput(r, req.Filters)
	if err != nil {
		return fail(ctx, err)
	}
	if !state.CanSubmit() {
		return api.Fail(ctx, fiber.StatusBadRequest, "Please enter at least one filter value")
	}

	result, err := c.ReportService.Run(ctx.UserContext(), middleware.UserID(ctx), r.ID, state, req.TotalsOnly)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(result)
}

// DetectAnomalies godoc
// @Summary Flag anomalous rows
// @Description Flag negative values, outliers and duplicate transactions in formatted rows
// @Tags reports
// @Accept json
// @Produce json
// @Param id path string true "Report ID"
// @Param request body AnomalyRequest true "Rows as returned by run"
// @Success 200 {object} AnomalyResult
// @Failure 400 {object} api.ErrorBody
// @Failure 404 {object} api.ErrorBody
// @Router /api/reports/{id}/anomalies [post]
func (c *ReportController) DetectAnomalies(ctx *fiber.Ctx) error {
	var req AnomalyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}

	result, err := c.ReportService.DetectAnomalies(ctx.UserContext(), ctx.Params("id"), req.Rows)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(result)
}

// Export godoc
// @Summary Export rows
// @Description Export rows as an Excel workbook or CSV file
// @Tags reports
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param request body ExportRequest true "Rows, columns and format"
// @Success 200 {file} file
// @Failure 400 {object} api.ErrorBody
// @Failure 404 {object} api.ErrorBody
// @Router /api/reports/export [post]
func (c *ReportController) Export(ctx *fiber.Ctx) error {
	var req ExportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Format == "" {
		req.Format = ExportXLSX
	}

	data, filename, err := c.ReportService.Export(req)
	if err != nil {
		return fail(ctx, err)
	}
	return SendFile(ctx, req.Format, filename, data)
}

// SendFile writes an exported file as an attachment.
func SendFile(ctx *fiber.Ctx, exportFormat ExportFormat, filename string, data []byte) error {
	ctx.Set("Content-Type", exportFormat.ContentType())
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(data)
}

func fail(ctx *fiber.Ctx, err error) error {
	status, message := HTTPError(err)
	return api.Fail(ctx, status, message)
}
