package models

import (
	"database/sql/driver"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// Amount stores an arbitrary-precision integer in a numeric(78,0)
// column. The zero value scans and saves as 0, so hydrated rows are
// always arithmetic-safe.
type Amount struct {
	sdkmath.Int
}

func NewAmount(v sdkmath.Int) Amount {
	if v.IsNil() {
		v = sdkmath.ZeroInt()
	}
	return Amount{Int: v}
}

func ZeroAmount() Amount {
	return Amount{Int: sdkmath.ZeroInt()}
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	if a.Int.IsNil() {
		return "0", nil
	}
	return a.Int.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		a.Int = sdkmath.ZeroInt()
		return nil
	case []byte:
		return a.parse(string(v))
	case string:
		return a.parse(v)
	case int64:
		a.Int = sdkmath.NewInt(v)
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T", src)
	}
}

func (a *Amount) parse(s string) error {
	if s == "" {
		a.Int = sdkmath.ZeroInt()
		return nil
	}
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return fmt.Errorf("amount: invalid numeric %q", s)
	}
	a.Int = v
	return nil
}
