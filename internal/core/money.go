// Package core provides the sales domain types and value parsing.
//
// This file contains functions for parsing sale amounts as they appear in
// spreadsheets (thousands separators, currency suffix) into whole won.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseWon converts a sheet cell to whole won.
//
// Thousands separators, blanks and a trailing 원 are removed before parsing.
// Fractional values are rounded half to even. Returns ErrInvalidAmount for
// text that is not a number.
//
// Examples:
//
//	ParseWon("1,234,000") -> 1234000, nil
//	ParseWon("350000000원") -> 350000000, nil
//	ParseWon("12.5") -> 12, nil
func ParseWon(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "원")
	s = strings.NewReplacer(",", "", " ", "", " ", "").Replace(s)
	if s == "" || s == "-" {
		return 0, ErrInvalidAmount
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidAmount
	}
	return int64(math.RoundToEven(f)), nil
}

// WonOrZero is ParseWon for tolerant readers: blank or invalid cells count as 0.
func WonOrZero(s string) int64 {
	v, err := ParseWon(s)
	if err != nil {
		return 0
	}
	return v
}

// Millions converts won to millions of won, rounded half to even.
func Millions(won int64) int64 {
	return int64(math.RoundToEven(float64(won) / 1e6))
}
