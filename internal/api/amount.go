package api

import (
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	errAmountRequired  = errors.New("amount required")
	errAmountFormat    = errors.New("invalid amount")
	errAmountPositive  = errors.New("amount must be > 0")
	errAmountPrecision = errors.New("amount has too many decimal places")
	errAmountRange     = errors.New("amount out of range")
)

var maxBaseUnits = decimal.New(math.MaxInt64, 0)

// Units converts between the decimal strings used on the wire and the integer
// base units stored by the engine. Decimals is the number of fractional digits
// one whole token has.
type Units struct {
	Decimals int32
}

// Parse turns "1.5" into 1_500_000_000 base units at 9 decimals.
func (u Units) Parse(s string) (int64, error) {
	return u.parse(s, false)
}

// ParseNonNegative is Parse that also accepts zero, for fees.
func (u Units) ParseNonNegative(s string) (int64, error) {
	return u.parse(s, true)
}

func (u Units) parse(s string, allowZero bool) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errAmountRequired
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errAmountFormat
	}

	if d.Sign() < 0 || (d.Sign() == 0 && !allowZero) {
		return 0, errAmountPositive
	}

	base := d.Shift(u.Decimals)
	if !base.Equal(base.Truncate(0)) {
		return 0, errAmountPrecision
	}

	if base.GreaterThan(maxBaseUnits) {
		return 0, errAmountRange
	}

	return base.IntPart(), nil
}

func (u Units) Format(v int64) string {
	return decimal.New(v, -u.Decimals).StringFixed(u.Decimals)
}
