package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionPaymentsRead  = "payments:read"
	PermissionPaymentsWrite = "payments:write"
	PermissionRefundsWrite  = "refunds:write"
	PermissionLedgerRead    = "ledger:read"
	PermissionLedgerWrite   = "ledger:write"
	PermissionPayoutsRead   = "payouts:read"
	PermissionPayoutsWrite  = "payouts:write"
)

// OperatorClaims identifies an authenticated API caller: the booking
// frontend's backend or an operations user.
type OperatorClaims struct {
	jwt.RegisteredClaims
	OperatorID  uint     `json:"operator_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission.
func (c *OperatorClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role.
func GetDefaultPermissions(role string) []string {
	switch role {
	case "admin":
		return []string{
			PermissionPaymentsRead,
			PermissionPaymentsWrite,
			PermissionRefundsWrite,
			PermissionLedgerRead,
			PermissionLedgerWrite,
			PermissionPayoutsRead,
			PermissionPayoutsWrite,
		}
	case "support":
		return []string{
			PermissionPaymentsRead,
			PermissionRefundsWrite,
			PermissionLedgerRead,
			PermissionPayoutsRead,
		}
	case "service":
		return []string{
			PermissionPaymentsRead,
			PermissionPaymentsWrite,
			PermissionLedgerRead,
		}
	default:
		return []string{}
	}
}
