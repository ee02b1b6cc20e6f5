// Package spreadsheet reads tabular upload files (.xlsx via excelize, .csv
// via encoding/csv) into a uniform header-plus-rows shape for the ingestion
// pipeline. Every error here is a file-level error: nothing row-scoped.
package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedType is returned for uploads that are neither .xlsx nor
// .csv.
var ErrUnsupportedType = errors.New("unsupported file type: expected .xlsx or .csv")

// Table is a parsed upload: the header row and the data rows after it.
// Rows may be ragged; missing trailing cells read as empty.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Read parses an uploaded file into a Table. The first non-empty row is the
// header. An upload with no header row is an error.
func Read(r io.Reader, filename string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(r)
	case ".csv":
		return readCSV(r)
	default:
		return nil, ErrUnsupportedType
	}
}

func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read xlsx file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return fromRows(rows)
}

func readCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // ragged rows are fine
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file: %w", err)
	}

	return fromRows(rows)
}

func fromRows(rows [][]string) (*Table, error) {
	// Skip leading blank rows before the header.
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, errors.New("file is empty")
	}

	return &Table{
		Headers: rows[start],
		Rows:    rows[start+1:],
	}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
