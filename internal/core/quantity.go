// Package core provides the meal planner domain types.
//
// This file contains parsing of recipe quantities entered in forms.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseQuantity converts a decimal string to a positive float.
//
// It accepts both dot (1.5) and comma (1,5) decimal separators. Signs,
// exponents, zero and non-finite values are rejected.
//
// Examples:
//
//	ParseQuantity("2")    -> 2, nil
//	ParseQuantity("0,25") -> 0.25, nil
//	ParseQuantity("-1")   -> 0, ErrInvalidQuantity
func ParseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 100 {
		return 0, ErrInvalidQuantity
	}
	s = strings.ReplaceAll(s, ",", ".")
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return 0, ErrInvalidQuantity
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) {
		return 0, ErrInvalidQuantity
	}
	return v, nil
}
