// Package handlers contains the fiber HTTP handlers for the payments API.
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"zeen/internal/services/payment"
	"zeen/internal/utils/response"
	"zeen/internal/validation"
)

type PaymentHandler struct {
	payments payment.Service
}

func NewPaymentHandler(payments payment.Service) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Initialize starts a payment for a pending booking and returns the
// gateway redirect URL.
func (h *PaymentHandler) Initialize(c *fiber.Ctx) error {
	var req payment.InitializeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(&req); err != nil {
		return response.ValidationError(c, err.Error())
	}

	resp, err := h.payments.Initialize(c.Context(), req)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Payment initialized", resp)
}

// Callback is the browser return leg of a hosted payment page. It asks
// the gateway for the definitive outcome; the webhook remains the source
// of truth when the browser never comes back.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	orderID := c.Query("order_id")
	if orderID == "" {
		orderID = c.Query("reference")
	}
	if orderID == "" {
		return response.BadRequest(c, "Missing order reference")
	}

	p, err := h.payments.ConfirmByOrderID(c.Context(), orderID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Payment status", p)
}

func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid payment id")
	}
	p, err := h.payments.GetByID(c.Context(), uint(id))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Payment", p)
}

// Refund refunds part or all of a completed payment.
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid payment id")
	}

	var req payment.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	req.PaymentID = uint(id)
	if err := validation.Struct(&req); err != nil {
		return response.ValidationError(c, err.Error())
	}

	p, err := h.payments.Refund(c.Context(), req)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Refund processed", p)
}
