package handlers

import (
	"github.com/gofiber/fiber/v2"

	"zeen/internal/models"
	"zeen/internal/services/fees"
	"zeen/internal/utils/response"
	"zeen/internal/validation"
)

type FeeHandler struct {
	settings fees.SettingsSource
}

func NewFeeHandler(settings fees.SettingsSource) *FeeHandler {
	return &FeeHandler{settings: settings}
}

// Quote computes the fee breakdown a booking at this price would freeze.
// The policy is resolved fresh per request so rate overrides take effect
// immediately.
func (h *FeeHandler) Quote(c *fiber.Ctx) error {
	var req struct {
		Tier         models.Tier         `json:"tier" validate:"required,oneof=starter premium enterprise"`
		Price        float64             `json:"price" validate:"gte=0"`
		FeePayer     *models.FeePayer    `json:"fee_payer" validate:"omitempty,oneof=client provider"`
		DepositType  *models.DepositType `json:"deposit_type" validate:"omitempty,oneof=none percentage fixed"`
		DepositValue *float64            `json:"deposit_value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(&req); err != nil {
		return response.ValidationError(c, err.Error())
	}

	calc := fees.NewCalculator(fees.PolicyFromSettings(h.settings))
	breakdown, err := calc.Calculate(req.Tier, req.Price, models.BookingSettings{
		FeePayer:     req.FeePayer,
		DepositType:  req.DepositType,
		DepositValue: req.DepositValue,
	})
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Fee quote", breakdown)
}
