// Package customs ingests trade-export ledger files: reading spreadsheets,
// cleaning rows, classifying products, and loading the result.
package customs

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"kbsync/internal/util"
)

// IsSupported reports whether the file extension is one the reader handles.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// ReadTable loads a tabular file into normalized headers plus string rows.
// CSV files are read directly; Excel files are read from their first sheet.
func ReadTable(path string) ([]string, [][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return readExcel(path)
	default:
		return nil, nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s has no header row", filepath.Base(path))
	}

	return normalizeHeaders(records[0]), records[1:], nil
}

func readExcel(path string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("%s has no sheets", filepath.Base(path))
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s has no header row", filepath.Base(path))
	}

	return normalizeHeaders(records[0]), records[1:], nil
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = util.NormalizeColumn(h)
	}
	return headers
}
