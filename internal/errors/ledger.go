package errors

var (
	ErrInsufficientBalance = &DomainError{
		Code:    "INSUFFICIENT_BALANCE",
		Message: "insufficient available balance",
	}
	ErrInvalidAmount = &DomainError{
		Code:    "INVALID_AMOUNT",
		Message: "amount must be greater than zero",
	}
	ErrHoldNotFound = &DomainError{
		Code:    "HOLD_NOT_FOUND",
		Message: "hold entry not found",
	}
	ErrHoldAlreadyReleased = &DomainError{
		Code:    "HOLD_ALREADY_RELEASED",
		Message: "hold has already been released",
	}
)
