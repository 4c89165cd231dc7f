package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places stored for a price.
const PriceScale = 2

// maxPrice is the exclusive upper bound of a NUMERIC(12,2) column.
var maxPrice = decimal.New(1, 10)

var ErrInvalidPrice = errors.New("invalid price")

// ParsePrice parses price text as an exact decimal. A comma is accepted as
// the decimal separator ("150,50" == "150.50"). The result is rounded to
// PriceScale places; values that do not fit the stored column are rejected.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	d = d.Round(PriceScale)
	if d.Abs().GreaterThanOrEqual(maxPrice) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q out of range", ErrInvalidPrice, s)
	}
	return d, nil
}

// PriceToCents converts a price to integer cents.
func PriceToCents(d decimal.Decimal) int64 {
	return d.Shift(PriceScale).Round(0).IntPart()
}
