// Package money converts between decimal amounts on the wire and the int64
// minor units the engine computes with.
package money

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Precision is the number of minor-unit digits.
const Precision = 2

var ErrInvalidAmount = errors.New("invalid money amount")

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// Parse reads a decimal string such as "21.50" into minor units.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return ToMinor(d)
}

// ToMinor converts d to minor units. Sub-cent precision is rejected rather
// than rounded.
func ToMinor(d decimal.Decimal) (int64, error) {
	if !d.Equal(d.Round(Precision)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimals", ErrInvalidAmount, d, Precision)
	}
	shifted := d.Shift(Precision)
	if shifted.Abs().GreaterThan(maxMinor) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d)
	}
	return shifted.IntPart(), nil
}

func FromMinor(v int64) decimal.Decimal {
	return decimal.New(v, -Precision)
}

// Format renders minor units with exactly Precision decimals.
func Format(v int64) string {
	return FromMinor(v).StringFixed(Precision)
}

// Amount is a minor-unit amount that travels as a decimal string in JSON.
// Decoding also accepts a bare JSON number.
type Amount int64

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAmount, err)
	}
	v, err := ToMinor(d)
	if err != nil {
		return err
	}
	*a = Amount(v)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(Format(int64(a)))
}
