// Package parser converts locale-ambiguous numeric cell text into values.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseMoney converts a currency or numeric string into a float64. The
// input may carry currency symbols, spaces and mixed thousands/decimal
// separators; the rightmost separator decides which is the decimal point:
//
//   - both "," and "." present: the rightmost one is decimal, every
//     occurrence of the other is a thousands separator
//   - only ",": decimal when exactly 1-2 digits follow the last comma,
//     thousands otherwise
//   - only ".": thousands when more than 2 digits follow the last period,
//     decimal otherwise
//
// ParseMoney never fails: empty, unparseable or non-finite input returns
// fallback.
func ParseMoney(raw string, fallback float64) float64 {
	cleaned := keepNumeric(raw)
	if cleaned == "" || cleaned == "-" {
		return fallback
	}

	lastComma := strings.LastIndexByte(cleaned, ',')
	lastDot := strings.LastIndexByte(cleaned, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = decimalize(cleaned, ',')
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
			cleaned = decimalize(cleaned, '.')
		}
	case lastComma >= 0:
		trailing := len(cleaned) - lastComma - 1
		if trailing >= 1 && trailing <= 2 {
			cleaned = decimalize(cleaned, ',')
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastDot >= 0:
		trailing := len(cleaned) - lastDot - 1
		if trailing > 2 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		} else {
			cleaned = decimalize(cleaned, '.')
		}
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return fallback
	}
	return value
}

// ParseCount parses an integer cell (stock, minimum threshold) through the
// same tolerant cleanup as ParseMoney. Fractional values are an error;
// negative values are returned as-is for the caller to reject.
func ParseCount(raw string) (int, error) {
	value := ParseMoney(raw, math.NaN())
	if math.IsNaN(value) {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	if value != math.Trunc(value) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int(value), nil
}

// keepNumeric drops everything except digits, separators, and a leading
// minus sign.
func keepNumeric(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// decimalize keeps only the last occurrence of sep, as a period; earlier
// occurrences are grouping noise.
func decimalize(s string, sep byte) string {
	last := strings.LastIndexByte(s, sep)
	head := strings.ReplaceAll(s[:last], string(sep), "")
	return head + "." + s[last+1:]
}
