package resolver

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errEmptyAmount = errors.New("empty amount")

// ParseAmount parses a remittance amount such as "1,234.50". Thousands
// separators are removed before parsing.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, errEmptyAmount
	}
	return decimal.NewFromString(s)
}
