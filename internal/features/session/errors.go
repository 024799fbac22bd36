package session

import (
	"errors"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/report"

	"github.com/gofiber/fiber/v2"
)

// HTTPError maps session errors to a status and message, deferring to the
// report pipeline for everything else.
func HTTPError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return fiber.StatusNotFound, "Session not found"
	case errors.Is(err, ErrCannotSubmit):
		return fiber.StatusBadRequest, "Please enter at least one filter value"
	case errors.Is(err, ErrStaleResult):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, ErrNoReport),
		errors.Is(err, ErrTotalsUnavailable),
		errors.Is(err, ErrUnknownColumn),
		errors.Is(err, ErrLastColumn),
		errors.Is(err, ErrNoRows):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, catalog.ErrReportNotFound):
		return fiber.StatusNotFound, "Report not found"
	default:
		return report.HTTPError(err)
	}
}
