// Package ingest normalizes raw spreadsheet exports into sale records:
// fuzzy header resolution, quantity/unit cell parsing, and the production
// split that separates outsourced purchases from in-house production.
package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultUnit is assumed when a cell carries no unit token.
const DefaultUnit = "kg"

// quantityPattern matches a leading numeric token (thousands separators
// allowed) followed by an optional trailing alphabetic unit token.
var quantityPattern = regexp.MustCompile(`^([0-9][0-9,]*(?:\.[0-9]+)?)\s*([A-Za-z]+)?$`)

// ParseQuantity extracts a numeric quantity and a unit token from free-form
// cell text. Empty, blank, or unparseable cells yield (0, "kg"); a missing
// unit token defaults to "kg". The parser never fails: bad input is a zero
// quantity, not an error.
func ParseQuantity(cell string) (float64, string) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return 0, DefaultUnit
	}

	m := quantityPattern.FindStringSubmatch(cell)
	if m == nil {
		return 0, DefaultUnit
	}

	qty, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || qty < 0 {
		return 0, DefaultUnit
	}

	unit := m[2]
	if unit == "" {
		return qty, DefaultUnit
	}
	return qty, strings.ToLower(unit)
}

// ParseAmount reads a plain numeric cell (rates, monetary amounts),
// tolerating thousands separators and surrounding whitespace. Unlike
// ParseQuantity it reports failure so callers can surface row-level errors.
func ParseAmount(cell string) (float64, bool) {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
