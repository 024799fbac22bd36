package api

import "github.com/gofiber/fiber/v2"

// Route is an interface for any feature that wants to register endpoints
type Route interface {
	Setup(app *fiber.App)
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Fail writes an error response with the given status.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorBody{Error: message})
}
