package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an exact currency amount in integer cents. Wire payloads carry
// plain decimal numbers (30, 12.5), so marshalling goes through
// shopspring/decimal instead of float64 to avoid rounding drift.
type Cents int64

func FromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Shift(2).Round(0).IntPart())
}

func FromFloat(v float64) Cents {
	return FromDecimal(decimal.NewFromFloat(v))
}

func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.Decimal().String()), nil
}

func (c *Cents) UnmarshalJSON(data []byte) error {
	raw := string(data)
	if len(raw) > 1 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		raw = raw[1 : len(raw)-1]
	}
	if raw == "" || raw == "null" {
		*c = 0
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", raw, err)
	}
	*c = FromDecimal(d)
	return nil
}
