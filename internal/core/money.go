// Package core provides money parsing and handling utilities.
//
// This file contains the cents-based Money type, its JSON encoding as a plain
// number in currency units, and the BRL display formatting used by summaries.
package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Money is an amount in cents. Calculations stay in cents; floats are only
// produced for ratios and display.
type Money struct {
	Cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// Cents builds a Money from an integer number of cents.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// MoneyFromFloat converts a currency-unit float (e.g. 12.345) to Money,
// rounding half away from zero to the cent.
func MoneyFromFloat(v float64) Money {
	return fromDecimal(decimal.NewFromFloat(v))
}

// ParseAmount converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators, an optional
// sign, and rounds half away from zero on the third decimal place. Unlike form
// validation it does not reject zero or negative values: it is the numeric
// coercion applied to amounts that arrive as strings.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("-1")     -> -100 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	// Thousands separators are not supported: a single comma is the decimal mark.
	if strings.Count(s, ",") > 1 || (strings.Contains(s, ",") && strings.Contains(s, ".")) {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return fromDecimal(d), nil
}

func fromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Mul(hundred).Round(0).IntPart()}
}

// Decimal returns the amount in currency units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float returns the amount in currency units for ratio math and charts.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// Percent returns pct percent of m, rounded to the cent.
func (m Money) Percent(pct float64) Money {
	return Money{Cents: decimal.NewFromInt(m.Cents).
		Mul(decimal.NewFromFloat(pct)).
		Div(hundred).
		Round(0).
		IntPart()}
}

// Sum adds up amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total.Cents += a.Cents
	}
	return total
}

// Ratio returns part/whole*100, or 0 when whole is zero.
func Ratio(part, whole Money) float64 {
	if whole.Cents == 0 {
		return 0
	}
	return float64(part.Cents) / float64(whole.Cents) * 100
}

// MarshalJSON encodes the amount as a JSON number in currency units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = Zero
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		if strings.TrimSpace(s) == "" {
			*m = Zero
			return nil
		}
		v, err := ParseAmount(s)
		if err != nil {
			return fmt.Errorf("decode amount %q: %w", s, err)
		}
		*m = v
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("decode amount %s: %w", data, ErrInvalidAmount)
	}
	*m = fromDecimal(d)
	return nil
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// FormatCurrency formats an amount as Brazilian reais, e.g. "R$1.234,56".
func FormatCurrency(m Money) string {
	return gomoney.New(m.Cents, gomoney.BRL).Display()
}

// FormatPercent formats a percentage with one decimal, e.g. "62.9%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}
