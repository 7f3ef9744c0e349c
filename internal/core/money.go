// Package core holds the record families the analytics engine consumes.
//
// This file contains parsing helpers for monetary amounts as they appear in
// studio exports: decimal strings with either a dot or a comma separator.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to cents with half-up
// rounding on the third decimal place. It accepts both dot (12.34) and
// comma (12,34) separators. Negative amounts are rejected: exports carry
// payouts and revenue, never refund lines.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.346") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	for _, r := range fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	cents := iv * 100
	switch {
	case len(fracPart) == 0:
		// whole amount
	case len(fracPart) == 1:
		fv, _ := strconv.ParseInt(fracPart, 10, 64)
		cents += fv * 10
	default:
		fv, _ := strconv.ParseInt(fracPart[:2], 10, 64)
		cents += fv
		// Half-up rounding on the third decimal
		if len(fracPart) > 2 && fracPart[2] >= '5' {
			cents++
		}
	}
	return cents, nil
}

// MoneyFromString parses a decimal string into Money, returning zero Money
// and false when the string is not a valid amount.
func MoneyFromString(s string) (Money, bool) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, false
	}
	return Money{Cents: cents}, true
}
