package utils

import (
	"strconv"
	"strings"
)

// Numeric helpers shared by every derived-field formula. All null/zero
// handling in the borelog calculator goes through here so the formulas
// stay consistent with each other.

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

// ParseNumber parses a free-form numeric field. Blank input and
// non-numeric input both come back as nil, never an error.
func ParseNumber(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// FormatNumber renders a nullable value for display: nil becomes the
// empty string, everything else is fixed to 2 decimals with trailing
// zeros stripped.
func FormatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	s := strconv.FormatFloat(*v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	return s
}

// SafeDivide divides without ever producing NaN or Infinity. A nil or
// non-positive denominator yields 0; a nil numerator counts as 0.
func SafeDivide(numerator, denominator *float64) float64 {
	if denominator == nil || *denominator <= 0 {
		return 0
	}
	n := 0.0
	if numerator != nil {
		n = *numerator
	}
	return n / *denominator
}

// SumStrict adds the values, propagating null: the result is nil if any
// addend is nil. This is the legacy layer-level N-value formula.
func SumStrict(vals ...*float64) *float64 {
	total := 0.0
	for _, v := range vals {
		if v == nil {
			return nil
		}
		total += *v
	}
	return &total
}

// SumPresent adds the non-nil values, returning nil only when every
// addend is nil. This is the sample-level N-value formula.
func SumPresent(vals ...*float64) *float64 {
	total := 0.0
	seen := false
	for _, v := range vals {
		if v == nil {
			continue
		}
		total += *v
		seen = true
	}
	if !seen {
		return nil
	}
	return &total
}

// SplitCombinedCount splits a combined count field like "12/3" into its
// two sides, parsing each independently. A missing or unparsable side
// defaults to 0.
func SplitCombinedCount(raw string) (left, right float64) {
	parts := strings.SplitN(raw, "/", 2)
	if v := ParseNumber(parts[0]); v != nil {
		left = *v
	}
	if len(parts) == 2 {
		if v := ParseNumber(parts[1]); v != nil {
			right = *v
		}
	}
	return left, right
}
