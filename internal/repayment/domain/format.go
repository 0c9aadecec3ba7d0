package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount renders d with Indian digit grouping (12,34,567) and at most
// two fraction digits, trailing zeros dropped.
func FormatAmount(symbol string, d decimal.Decimal) string {
	r := d.Round(2)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}
	intPart, frac, _ := strings.Cut(r.String(), ".")
	out := sign + symbol + groupIndian(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// FormatFixed renders d with exactly two fraction digits and no grouping.
func FormatFixed(symbol string, d decimal.Decimal) string {
	return symbol + d.StringFixed(2)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append(groups, head[len(head)-2:])
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append(groups, head)
	}

	var b strings.Builder
	for i := len(groups) - 1; i >= 0; i-- {
		b.WriteString(groups[i])
		b.WriteByte(',')
	}
	b.WriteString(tail)
	return b.String()
}
