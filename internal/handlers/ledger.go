package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"zeen/internal/services/ledger"
	"zeen/internal/utils/response"
	"zeen/internal/validation"
)

type LedgerHandler struct {
	ledger     ledger.Service
	holdPeriod time.Duration
}

func NewLedgerHandler(ledgerSvc ledger.Service, holdPeriod time.Duration) *LedgerHandler {
	return &LedgerHandler{ledger: ledgerSvc, holdPeriod: holdPeriod}
}

func (h *LedgerHandler) providerID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("providerId")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// Balance returns the provider's available, held and payout-eligible
// balances, all derived by replaying the ledger.
func (h *LedgerHandler) Balance(c *fiber.Ctx) error {
	providerID, ok := h.providerID(c)
	if !ok {
		return response.BadRequest(c, "Invalid provider id")
	}

	cutoff := time.Now().Add(-h.holdPeriod)
	summary, err := h.ledger.BalanceSummary(c.Context(), providerID, cutoff)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Balance", summary)
}

// Entries lists a provider's ledger entries, newest page selected via
// limit/offset query params.
func (h *LedgerHandler) Entries(c *fiber.Ctx) error {
	providerID, ok := h.providerID(c)
	if !ok {
		return response.BadRequest(c, "Invalid provider id")
	}
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	entries, err := h.ledger.Entries(c.Context(), providerID, limit, offset)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Ledger entries", entries)
}

// Hold places an operator hold on part of a provider's balance, keeping
// it out of payouts while a dispute is reviewed.
func (h *LedgerHandler) Hold(c *fiber.Ctx) error {
	providerID, ok := h.providerID(c)
	if !ok {
		return response.BadRequest(c, "Invalid provider id")
	}

	var req struct {
		Amount float64 `json:"amount" validate:"required,gt=0"`
		Reason string  `json:"reason" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if err := validation.Struct(&req); err != nil {
		return response.ValidationError(c, err.Error())
	}

	entry, err := h.ledger.RecordHold(c.Context(), providerID, req.Amount, req.Reason)
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Hold placed", entry)
}

// ReleaseHold releases a previously placed hold. A hold releases once;
// repeats are rejected.
func (h *LedgerHandler) ReleaseHold(c *fiber.Ctx) error {
	providerID, ok := h.providerID(c)
	if !ok {
		return response.BadRequest(c, "Invalid provider id")
	}
	holdID, err := c.ParamsInt("holdId")
	if err != nil || holdID <= 0 {
		return response.BadRequest(c, "Invalid hold id")
	}

	entry, err := h.ledger.ReleaseHold(c.Context(), providerID, uint(holdID))
	if err != nil {
		return response.Domain(c, err)
	}
	return response.Success(c, "Hold released", entry)
}
