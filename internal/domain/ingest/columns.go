package ingest

import (
	"fmt"
	"strings"
)

// Field is one canonical spreadsheet column the pipeline understands,
// together with the ordered header aliases it is recognized by.
type Field struct {
	Name     string
	Aliases  []string
	Required bool
}

// SalesFields are the canonical columns of a sales ledger export. Alias
// order matters: earlier aliases are preferred.
var SalesFields = []Field{
	{
		Name:     "particulars",
		Aliases:  []string{"particulars", "item name", "item", "product name", "product", "name", "description"},
		Required: true,
	},
	{
		Name:     "outward_qty",
		Aliases:  []string{"outward qty", "outward quantity", "sales qty", "sold qty", "qty sold", "sales quantity", "outward"},
		Required: true,
	},
	{
		Name:     "outward_rate",
		Aliases:  []string{"outward rate", "sales rate", "sale rate", "sale price", "selling price", "rate"},
		Required: true,
	},
	{
		Name:    "inward_qty",
		Aliases: []string{"inward qty", "inward quantity", "purchase qty", "purchased qty", "inward"},
	},
	{
		Name:    "inward_rate",
		Aliases: []string{"inward rate", "purchase rate", "buying rate", "cost rate"},
	},
	{
		Name:    "inward_value",
		Aliases: []string{"inward value", "purchase value", "purchase amount", "cost value"},
	},
	{
		Name:    "source",
		Aliases: []string{"source", "origin", "type"},
	},
}

// PnLFields are the canonical columns of a profit & loss statement export.
var PnLFields = []Field{
	{
		Name:     "particulars",
		Aliases:  []string{"particulars", "line item", "item", "expense", "account", "description", "name"},
		Required: true,
	},
	{
		Name:     "amount",
		Aliases:  []string{"amount", "value", "total", "debit", "rs"},
		Required: true,
	},
}

// ColumnMap is the result of resolving a header row: canonical field name to
// the header it matched and its column index.
type ColumnMap struct {
	indexes map[string]int
	headers map[string]string
}

// Has reports whether the canonical field was resolved.
func (m *ColumnMap) Has(field string) bool {
	_, ok := m.indexes[field]
	return ok
}

// Header returns the actual header string a canonical field was matched
// from.
func (m *ColumnMap) Header(field string) (string, bool) {
	h, ok := m.headers[field]
	return h, ok
}

// Value returns the cell for a canonical field in a row, or "" when the
// field is unmapped or the row is shorter than the mapped column.
func (m *ColumnMap) Value(row []string, field string) string {
	idx, ok := m.indexes[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// MissingColumnsError is a file-level failure: required canonical fields
// could not be matched against the upload's headers. It aborts the whole
// ingestion before any record is created.
type MissingColumnsError struct {
	Missing []string
	Headers []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("required columns not found: %s (headers present: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Headers, ", "))
}

// ResolveColumns maps a raw header row to canonical fields.
//
// For each field the match rules are tried in priority order: exact match,
// header-contains-alias, alias-contains-header, all case-insensitive. The
// first header satisfying a rule wins and the field is not reconsidered.
// Missing any required field fails the whole resolution.
func ResolveColumns(headers []string, fields []Field) (*ColumnMap, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cm := &ColumnMap{
		indexes: make(map[string]int),
		headers: make(map[string]string),
	}

	type rule func(header, alias string) bool
	rules := []rule{
		func(header, alias string) bool { return header == alias },
		func(header, alias string) bool { return header != "" && strings.Contains(header, alias) },
		func(header, alias string) bool { return header != "" && strings.Contains(alias, header) },
	}

	for _, field := range fields {
		resolved := false
		for _, match := range rules {
			for _, alias := range field.Aliases {
				for i, header := range normalized {
					if match(header, alias) {
						cm.indexes[field.Name] = i
						cm.headers[field.Name] = strings.TrimSpace(headers[i])
						resolved = true
						break
					}
				}
				if resolved {
					break
				}
			}
			if resolved {
				break
			}
		}
	}

	var missing []string
	for _, field := range fields {
		if field.Required && !cm.Has(field.Name) {
			missing = append(missing, field.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Headers: headers}
	}

	return cm, nil
}
