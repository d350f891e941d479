// Package core provides money parsing and handling utilities.
//
// Money is kept as integer minor units so that aggregation over many payments
// never accumulates floating point error. Conversion to and from decimal
// strings goes through shopspring/decimal.
package core

import (
	"bytes"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (1/100 of the currency unit).
type Money struct {
	Cents int64
}

var ErrInvalidAmount = errors.New("invalid amount")

// Units builds Money from whole currency units.
func Units(n int64) Money {
	return Money{Cents: n * 100}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// Mul scales m by an integer factor.
func (m Money) Mul(n int) Money {
	return Money{Cents: m.Cents * int64(n)}
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// ClampZero returns m, or zero when m is negative.
func (m Money) ClampZero() Money {
	if m.Cents < 0 {
		return Money{}
	}
	return m
}

// Decimal returns m in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders m without trailing zero fractions: 1000, 12.5, 0.05.
func (m Money) String() string {
	return m.Decimal().String()
}

// ParseMoney converts a decimal string to Money with half-up rounding to the
// minor unit. Both dot (12.34) and comma (12,34) decimal separators are
// accepted. Zero is allowed; negative values are not.
//
// Examples:
//   ParseMoney("1000")   -> 100000 cents
//   ParseMoney("12,34")  -> 1234 cents
//   ParseMoney("12.345") -> 1235 cents
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(decimal.New(1<<62, 0)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MarshalJSON writes m as a bare JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(bytes.Trim(data, `"`))
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds up amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
