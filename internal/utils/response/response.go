package response

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	domainerr "zeen/internal/errors"
)

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

func ServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}

func Unauthorized(c *fiber.Ctx) error {
	return Error(c, fiber.StatusUnauthorized, "Unauthorized")
}

func ValidationError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// statusByCode maps domain error codes to HTTP statuses. Codes not
// listed default to 400; non-domain errors become opaque 500s.
var statusByCode = map[string]int{
	"PAYMENT_NOT_FOUND":        fiber.StatusNotFound,
	"BOOKING_NOT_FOUND":        fiber.StatusNotFound,
	"PAYOUT_NOT_FOUND":         fiber.StatusNotFound,
	"HOLD_NOT_FOUND":           fiber.StatusNotFound,
	"INVALID_TRANSITION":       fiber.StatusConflict,
	"PAYOUT_ALREADY_SCHEDULED": fiber.StatusConflict,
	"HOLD_ALREADY_RELEASED":    fiber.StatusConflict,
	"INSUFFICIENT_BALANCE":     fiber.StatusUnprocessableEntity,
	"REFUND_EXCEEDS_PAYMENT":   fiber.StatusUnprocessableEntity,
	"PAYMENT_NOT_REFUNDABLE":   fiber.StatusUnprocessableEntity,
	"PAYOUT_NOT_CANCELLABLE":   fiber.StatusUnprocessableEntity,
	"MISSING_PAYOUT_DETAILS":   fiber.StatusUnprocessableEntity,
	"REFUND_DECLINED":          fiber.StatusBadGateway,
}

// Domain renders a service error. Domain errors map to client statuses
// with their code attached; everything else is a 500 with the detail
// kept out of the body.
func Domain(c *fiber.Ctx, err error) error {
	var de *domainerr.DomainError
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": de.Message,
			"code":  de.Code,
		})
	}
	return ServerError(c, "internal error")
}
