package vault

import (
	"errors"
	"fmt"
)

// Error classes. Specific errors wrap exactly one class, so callers can
// match either the precise condition or the whole class with errors.Is.
var (
	ErrValidation    = errors.New("vault: validation error")
	ErrState         = errors.New("vault: state error")
	ErrAuthorization = errors.New("vault: authorization error")
	ErrArithmetic    = errors.New("vault: arithmetic error")
)

var (
	ErrZeroAmount                 = fmt.Errorf("%w: amount is zero", ErrValidation)
	ErrNegativeAmount             = fmt.Errorf("%w: amount is negative", ErrValidation)
	ErrInsufficientLockupDuration = fmt.Errorf("%w: lockup duration below configured minimum", ErrValidation)
	ErrInvalidRounding            = fmt.Errorf("%w: unknown rounding mode", ErrValidation)

	ErrAlreadyUnlocked     = fmt.Errorf("%w: lockup already unlocked", ErrState)
	ErrAlreadyRageQuitting = fmt.Errorf("%w: rage quit already in progress", ErrState)
	ErrExceedsUnlocked     = fmt.Errorf("%w: amount exceeds unlocked shares", ErrState)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient share balance", ErrState)
	ErrReentrancy          = fmt.Errorf("%w: vault is busy with another operation", ErrState)

	ErrUnauthorized = fmt.Errorf("%w: caller is not an enabled keeper", ErrAuthorization)
	ErrNotSelf      = fmt.Errorf("%w: strategy rejected the vault identity", ErrAuthorization)

	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrArithmetic)
)
