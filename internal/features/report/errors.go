package report

import (
	"errors"

	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
	"tcpos-reports/internal/features/query"
	"tcpos-reports/internal/features/upstream"

	"github.com/gofiber/fiber/v2"
)

// HTTPError maps errors of the report pipeline to a status and the message
// shown to the user.
func HTTPError(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrReportNotFound):
		return fiber.StatusNotFound, "Report not found"
	case errors.Is(err, query.ErrNoParams),
		errors.Is(err, filter.ErrUnknownFilter),
		errors.Is(err, filter.ErrInvalidNumber),
		errors.Is(err, filter.ErrInvalidBoolean),
		errors.Is(err, filter.ErrInvalidDate),
		errors.Is(err, filter.ErrWrongKind),
		errors.Is(err, ErrUnsupportedFormat):
		return fiber.StatusBadRequest, err.Error()
	case IsUpstreamError(err):
		return fiber.StatusBadGateway, upstream.UserMessage(err)
	default:
		return fiber.StatusInternalServerError, err.Error()
	}
}
