package notification

import (
	"tcpos-reports/internal/common/api"
	"tcpos-reports/internal/middleware"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const localsUserID = "userID"

type NotificationController struct {
	service NotificationService
	hub     *Hub
	logger  *zap.Logger
}

func NewNotificationController(service NotificationService, hub *Hub, log *zap.Logger) *NotificationController {
	return &NotificationController{
		service: service,
		hub:     hub,
		logger:  log,
	}
}

// List godoc
// @Summary List notifications
// @Description Newest first, at most the configured limit
// @Tags notifications
// @Produce json
// @Success 200 {array} Notification
// @Failure 500 {object} api.ErrorBody
// @Router /api/notifications [get]
func (c *NotificationController) List(ctx *fiber.Ctx) error {
	notifications, err := c.service.List(ctx.UserContext(), middleware.UserID(ctx))
	if err != nil {
		return api.Fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(notifications)
}

// Clear godoc
// @Summary Clear notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} api.ErrorBody
// @Router /api/notifications [delete]
func (c *NotificationController) Clear(ctx *fiber.Ctx) error {
	if err := c.service.Clear(ctx.UserContext(), middleware.UserID(ctx)); err != nil {
		return api.Fail(ctx, fiber.StatusInternalServerError, err.Error())
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}

// Upgrade only lets websocket handshakes through and hands the user to the
// connection handler.
func (c *NotificationController) Upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	ctx.Locals(localsUserID, middleware.UserID(ctx))
	return ctx.Next()
}

// Stream pushes every new notification of the user as JSON until the client
// goes away.
func (c *NotificationController) Stream(conn *websocket.Conn) {
	userID, _ := conn.Locals(localsUserID).(string)
	updates, unsubscribe := c.hub.Subscribe(userID)
	defer unsubscribe()

	// Reads only detect the close; clients have nothing to send.
	go func() {
		defer unsubscribe()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for n := range updates {
		if err := conn.WriteJSON(n); err != nil {
			c.logger.Debug("Notification stream closed", zap.Error(err))
			return
		}
	}
}
