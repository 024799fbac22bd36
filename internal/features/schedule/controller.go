package schedule

import (
	"errors"

	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/features/report"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ScheduleController struct {
	Service ScheduleService
}

func NewScheduleController(service ScheduleService) *ScheduleController {
	return &ScheduleController{Service: service}
}

// Create godoc
// @Summary Create scheduled run
// @Description Save a filter set that runs a report on a cron schedule
// @Tags schedules
// @Accept json
// @Produce json
// @Param request body ScheduleRequest true "Scheduled run"
// @Success 201 {object} ScheduledRun
// @Failure 400 {object} api.ErrorBody
// @Router /api/schedules [post]
func (c *ScheduleController) Create(ctx *fiber.Ctx) error {
	var req ScheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	run, err := c.Service.Create(ctx.UserContext(), middleware.UserID(ctx), req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(run)
}

// List godoc
// @Summary List scheduled runs
// @Tags schedules
// @Produce json
// @Success 200 {array} ScheduledRun
// @Router /api/schedules [get]
func (c *ScheduleController) List(ctx *fiber.Ctx) error {
	runs, err := c.Service.List(ctx.UserContext(), middleware.UserID(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(runs)
}

// Get godoc
// @Summary Get scheduled run
// @Tags schedules
// @Produce json
// @Param id path string true "Scheduled run ID"
// @Success 200 {object} ScheduledRun
// @Failure 404 {object} api.ErrorBody
// @Router /api/schedules/{id} [get]
func (c *ScheduleController) Get(ctx *fiber.Ctx) error {
	run, err := c.Service.Get(ctx.UserContext(), middleware.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(run)
}

// Update godoc
// @Summary Update scheduled run
// @Tags schedules
// @Accept json
// @Produce json
// @Param id path string true "Scheduled run ID"
// @Param request body ScheduleRequest true "Scheduled run"
// @Success 200 {object} ScheduledRun
// @Failure 400 {object} api.ErrorBody
// @Failure 404 {object} api.ErrorBody
// @Router /api/schedules/{id} [put]
func (c *ScheduleController) Update(ctx *fiber.Ctx) error {
	var req ScheduleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return api.Fail(ctx, fiber.StatusBadRequest, "Invalid request body")
	}
	run, err := c.Service.Update(ctx.UserContext(), middleware.UserID(ctx), ctx.Params("id"), req)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(run)
}

// Delete godoc
// @Summary Delete scheduled run
// @Tags schedules
// @Param id path string true "Scheduled run ID"
// @Success 204
// @Failure 404 {object} api.ErrorBody
// @Router /api/schedules/{id} [delete]
func (c *ScheduleController) Delete(ctx *fiber.Ctx) error {
	if err := c.Service.Delete(ctx.UserContext(), middleware.UserID(ctx), ctx.Params("id")); err != nil {
		return fail(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// Execute godoc
// @Summary Run a scheduled run now
// @Tags schedules
// @Produce json
// @Param id path string true "Scheduled run ID"
// @Success 200 {object} Outcome
// @Failure 404 {object} api.ErrorBody
// @Failure 502 {object} api.ErrorBody
// @Router /api/schedules/{id}/execute [post]
func (c *ScheduleController) Execute(ctx *fiber.Ctx) error {
	outcome, err := c.Service.Execute(ctx.UserContext(), middleware.UserID(ctx), ctx.Params("id"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(outcome)
}

// Logs godoc
// @Summary List executions of a scheduled run
// @Tags schedules
// @Produce json
// @Param id path string true "Scheduled run ID"
// @Param limit query int false "Maximum entries (default 50)"
// @Success 200 {array} RunLog
// @Failure 404 {object} api.ErrorBody
// @Router /api/schedules/{id}/logs [get]
func (c *ScheduleController) Logs(ctx *fiber.Ctx) error {
	logs, err := c.Service.Logs(ctx.UserContext(), middleware.UserID(ctx), ctx.Params("id"), ctx.QueryInt("limit", defaultLogLimit))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(logs)
}

func fail(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrScheduleNotFound):
		return api.Fail(ctx, fiber.StatusNotFound, "Scheduled run not found")
	case errors.Is(err, ErrInvalidSchedule),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrNoFilters):
		return api.Fail(ctx, fiber.StatusBadRequest, err.Error())
	}
	status, message := report.HTTPError(err)
	return api.Fail(ctx, status, message)
}
