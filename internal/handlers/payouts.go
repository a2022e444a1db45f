package handlers

import (
	"github.com/gofiber/fiber/v2"

	"zeen/internal/services/payout"
	"zeen/internal/utils/response"
)

type PayoutHandler struct {
	payouts payout.Service
}

func NewPayoutHandler(payouts payout.Service) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// RunSchedule triggers a scheduling sweep outside the cron cadence.
func (h *PayoutHandler) RunSchedule(c *fiber.Ctx) error {
	scheduled, err := h.payouts.SchedulePayouts(c.Context())
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Scheduling sweep finished", fiber.Map{"scheduled": scheduled})
}

// RunProcess disburses everything currently due.
func (h *PayoutHandler) RunProcess(c *fiber.Ctx) error {
	result, err := h.payouts.ProcessDuePayouts(c.Context())
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Payout run finished", result)
}

// ProcessBatch re-runs the unsettled payouts of one batch.
func (h *PayoutHandler) ProcessBatch(c *fiber.Ctx) error {
	batchID := c.Params("batchId")
	if batchID == "" {
		return response.BadRequest(c, "Missing batch id")
	}
	result, err := h.payouts.ProcessBatch(c.Context(), batchID)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Batch run finished", result)
}

// ScheduleForProvider schedules a one-off payout for a single provider.
func (h *PayoutHandler) ScheduleForProvider(c *fiber.Ctx) error {
	providerID, err := c.ParamsInt("providerId")
	if err != nil || providerID <= 0 {
		return response.BadRequest(c, "Invalid provider id")
	}
	p, err := h.payouts.ScheduleForProvider(c.Context(), uint(providerID))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Payout scheduled", p)
}

func (h *PayoutHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid payout id")
	}
	p, err := h.payouts.Get(c.Context(), uint(id))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Payout", p)
}

// Retry immediately re-attempts a failed payout.
func (h *PayoutHandler) Retry(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid payout id")
	}
	p, err := h.payouts.Retry(c.Context(), uint(id))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Payout retried", p)
}

// Cancel cancels a pending payout; the amount stays on the ledger.
func (h *PayoutHandler) Cancel(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return response.BadRequest(c, "Invalid payout id")
	}
	p, err := h.payouts.Cancel(c.Context(), uint(id))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Payout cancelled", p)
}
