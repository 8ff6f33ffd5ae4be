package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxMoneyDigits bounds the integer part of stored amounts (decimal(15,2)).
const MaxMoneyDigits = 13

var maxMoney = decimal.New(1, MaxMoneyDigits)

// ParseAmount accepts plain numbers and user-formatted strings such as
// "20,000", "TZS 20,000" or "KES -1,250.50".
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	s = strings.ReplaceAll(s, ",", "")

	// drop a currency prefix or suffix
	s = strings.TrimFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '-' && r != '.'
	})
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}

	var b strings.Builder
	b.Grow(len(s) + 1)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ' ':
		default:
			return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	if neg {
		clean = "-" + clean
	}
	return decimal.NewFromString(clean)
}

// Amount is a request-side decimal that decodes JSON numbers as well as
// formatted strings.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) *Amount {
	return &Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		d, err := ParseAmount(s)
		if err != nil {
			return err
		}
		a.Decimal = d
		return nil
	}
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid amount %s", string(data))
	}
	a.Decimal = d
	return nil
}

// ValidateMoney checks scale and magnitude; positive requires > 0, otherwise >= 0.
func ValidateMoney(field string, d decimal.Decimal, positive bool) error {
	if positive && !d.IsPositive() {
		return NewValidation(field+" must be greater than 0", map[string]string{field: "gt"})
	}
	if !positive && d.IsNegative() {
		return NewValidation(field+" must not be negative", map[string]string{field: "gte"})
	}
	if !d.Equal(d.Round(2)) {
		return NewValidation(field+" must have at most 2 decimal places", map[string]string{field: "scale"})
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return NewValidation(field+" is too large", map[string]string{field: "max"})
	}
	return nil
}
