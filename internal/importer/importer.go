// Package importer reads part lists from CSV and Excel files.
// It supports automatic delimiter detection, flexible column mapping, and
// case-insensitive header recognition. A file that cannot be read completely
// is rejected as a whole with a *model.LoadError.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/tubenest/internal/model"
)

// ImportResult holds the parts read from a file and any non-fatal notes.
type ImportResult struct {
	Parts    []model.Part
	Warnings []string
}

// ColumnMapping maps semantic column roles to their indices in the data.
type ColumnMapping struct {
	Name     int
	Length   int
	Quantity int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"name":     {"part", "name", "part name", "label", "description", "item"},
	"length":   {"length", "len", "l", "size", "cut length"},
	"quantity": {"quantity", "qty", "count", "pcs", "pieces", "amount"},
}

// Load reads a part table, choosing the reader from the file extension.
func Load(path string) (ImportResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(path)
	case ".csv", ".txt", ".tsv":
		return ImportCSV(path)
	default:
		return ImportResult{}, &model.LoadError{
			Path:     path,
			Problems: []string{fmt.Sprintf("unsupported file type %q", filepath.Ext(path))},
		}
	}
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// DetectColumns examines a header row and returns a ColumnMapping.
// Returns the mapping and true if a header was detected, or the positional
// mapping (name, length, quantity) and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{Name: -1, Length: -1, Quantity: -1}

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				switch role {
				case "name":
					if mapping.Name == -1 {
						mapping.Name = i
					}
				case "length":
					if mapping.Length == -1 {
						mapping.Length = i
					}
				case "quantity":
					if mapping.Quantity == -1 {
						mapping.Quantity = i
					}
				}
			}
		}
	}

	if !isHeader {
		return ColumnMapping{Name: 0, Length: 1, Quantity: 2}, false
	}
	return mapping, true
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseLength accepts a decimal comma when the value has no dot.
func parseLength(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		v, err = strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return v, nil
}

// parseQuantity accepts whole numbers, including spreadsheet renderings like "4.0".
func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(v), nil
}

// parseRow extracts a Part from a row using the given column mapping.
// A non-empty problem means the row is unusable.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, partCount int) (model.Part, string) {
	name := getCell(row, mapping.Name)
	if name == "" {
		name = fmt.Sprintf("Part %d", partCount+1)
	}

	lengthStr := getCell(row, mapping.Length)
	if lengthStr == "" {
		return model.Part{}, fmt.Sprintf("%s: missing length value", rowLabel)
	}
	length, err := parseLength(lengthStr)
	if err != nil {
		return model.Part{}, fmt.Sprintf("%s: invalid length '%s'", rowLabel, lengthStr)
	}

	qtyStr := getCell(row, mapping.Quantity)
	if qtyStr == "" {
		return model.Part{}, fmt.Sprintf("%s: missing quantity value", rowLabel)
	}
	qty, err := parseQuantity(qtyStr)
	if err != nil {
		return model.Part{}, fmt.Sprintf("%s: invalid quantity '%s'", rowLabel, qtyStr)
	}

	if length <= 0 || qty <= 0 {
		return model.Part{}, fmt.Sprintf("%s: length and quantity must be positive", rowLabel)
	}

	return model.NewPart(name, length, qty), ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports parts from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) (ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ImportResult{}, &model.LoadError{Path: path, Err: err}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return ImportResult{}, &model.LoadError{Path: path, Problems: []string{"file is empty"}}
	}

	var warnings []string
	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		warnings = append(warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		return ImportResult{}, &model.LoadError{Path: path, Err: err}
	}

	return importFromRows(path, records, "Line", warnings)
}

// ImportCSVFromReader imports parts from a CSV reader with a known delimiter.
// name identifies the source in errors.
func ImportCSVFromReader(reader io.Reader, name string, delimiter rune) (ImportResult, error) {
	records, err := readCSV(reader, delimiter)
	if err != nil {
		return ImportResult{}, &model.LoadError{Path: name, Err: err}
	}
	return importFromRows(name, records, "Line", nil)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

// ImportExcel imports parts from an Excel file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) (ImportResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return ImportResult{}, &model.LoadError{Path: path, Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{}, &model.LoadError{Path: path, Problems: []string{"workbook has no sheets"}}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{}, &model.LoadError{Path: path, Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}

	return importFromRows(path, rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// All row problems are collected; if there is any, no parts are returned.
func importFromRows(path string, rows [][]string, rowPrefix string, warnings []string) (ImportResult, error) {
	for len(rows) > 0 && isEmptyRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return ImportResult{}, &model.LoadError{Path: path, Problems: []string{"no data rows found"}}
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		warnings = append(warnings, "Detected header row, skipping")

		var missing []string
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			return ImportResult{}, &model.LoadError{
				Path:     path,
				Problems: []string{fmt.Sprintf("required columns not found in header: %s", strings.Join(missing, ", "))},
			}
		}
	} else if _, err := parseLength(getCell(rows[0], mapping.Length)); err != nil && len(rows[0]) >= 3 {
		// Unrecognised header words: skip the row but keep positional mapping.
		startRow = 1
		warnings = append(warnings, "Detected header row, skipping")
	}

	result := ImportResult{Warnings: warnings}
	var problems []string
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		part, problem := parseRow(row, mapping, rowLabel, len(result.Parts))
		if problem != "" {
			problems = append(problems, problem)
			continue
		}
		result.Parts = append(result.Parts, part)
	}

	if len(problems) > 0 {
		return ImportResult{}, &model.LoadError{Path: path, Problems: problems}
	}
	if len(result.Parts) == 0 {
		return ImportResult{}, &model.LoadError{Path: path, Problems: []string{"no data rows found"}}
	}
	return result, nil
}
