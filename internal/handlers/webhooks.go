package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	domainerr "zeen/internal/errors"
	"zeen/internal/services/payment"
	"zeen/internal/utils/response"
)

type WebhookHandler struct {
	payments payment.Service
}

func NewWebhookHandler(payments payment.Service) *WebhookHandler {
	return &WebhookHandler{payments: payments}
}

// Receive accepts a raw gateway webhook. The gateway adapter owns
// signature verification; an unverifiable delivery gets a 400 so the
// gateway retries, everything else is acknowledged with 200 to stop
// redelivery of events we have already applied or chosen to ignore.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	gatewayName := c.Params("gateway")

	headers := make(map[string]string)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers[string(key)] = string(value)
	})

	err := h.payments.HandleWebhook(c.Context(), gatewayName, c.Body(), headers)
	if err != nil {
		if errors.Is(err, domainerr.ErrWebhookSignature) || errors.Is(err, domainerr.ErrUnknownGateway) {
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "webhook processing failed")
	}
	return c.SendStatus(fiber.StatusOK)
}
