// Package money provides a fixed-point USD amount used for cash balances,
// trade costs and display formatting.
package money

import (
	"database/sql/driver"
	"fmt"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount is a USD amount backed by an arbitrary-precision decimal.
// The zero value is $0.00.
type Amount struct {
	d decimal.Decimal
}

// FromFloat converts a float (e.g. a provider quote price) into an Amount.
func FromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

// FromInt returns a whole-dollar Amount.
func FromInt(n int64) Amount {
	return Amount{d: decimal.NewFromInt(n)}
}

// Zero returns $0.00.
func Zero() Amount {
	return Amount{}
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

// MulInt multiplies the amount by a share count.
func (a Amount) MulInt(n int) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(int64(n)))}
}

func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }
func (a Amount) Equal(b Amount) bool    { return a.d.Equal(b.d) }
func (a Amount) IsNegative() bool       { return a.d.IsNegative() }

// Float64 returns the amount as a float, for callers that only display it.
func (a Amount) Float64() float64 {
	f, _ := a.d.Float64()
	return f
}

// Cents returns the amount in whole cents, rounded half away from zero.
func (a Amount) Cents() int64 {
	return a.d.Round(2).Shift(2).IntPart()
}

// USD formats the amount for display: $1,234.56.
func (a Amount) USD() string {
	return gomoney.New(a.Cents(), gomoney.USD).Display()
}

// String returns the plain decimal representation with two places.
func (a Amount) String() string {
	return a.d.Round(2).StringFixed(2)
}

// MarshalJSON emits the amount as a bare JSON number with two places.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount %q: %w", data, err)
	}
	a.d = d
	return nil
}

// Scan implements sql.Scanner so Amount maps onto NUMERIC columns.
func (a *Amount) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	a.d = d
	return nil
}

// Value implements driver.Valuer.
func (a Amount) Value() (driver.Value, error) {
	return a.d.Round(2).Value()
}
