/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package excel

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/blnkfinance/notifier/model"
	"github.com/xuri/excelize/v2"
)

// Workbook reads the first worksheet of an uploaded spreadsheet.
type Workbook struct {
	file  *excelize.File
	sheet string
}

var rawValues = excelize.Options{RawCellValue: true}

// Open parses a spreadsheet from r. Only the first sheet is ever used.
func Open(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("error opening spreadsheet: %w", err)
	}
	return newWorkbook(f)
}

// OpenFile parses the spreadsheet stored at path.
func OpenFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening spreadsheet: %w", err)
	}
	return newWorkbook(f)
}

func newWorkbook(f *excelize.File) (*Workbook, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("spreadsheet has no worksheets")
	}
	return &Workbook{file: f, sheet: sheets[0]}, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// SheetName is the name of the worksheet rows are read from.
func (w *Workbook) SheetName() string {
	return w.sheet
}

// CellValue returns the trimmed raw value at column letter and 1-indexed row.
// Empty cells report false.
func (w *Workbook) CellValue(column string, row int) (string, bool, error) {
	v, err := w.file.GetCellValue(w.sheet, column+strconv.Itoa(row), rawValues)
	if err != nil {
		return "", false, err
	}
	v = strings.TrimSpace(v)
	return v, v != "", nil
}

// ExtractRows reads every data row below the header through mapping. Rows in
// which none of the mapped cells hold a value are skipped; rows with at least
// one value are kept as-is for validation.
func (w *Workbook) ExtractRows(mapping model.ColumnMapping) ([]model.ExtractedRow, error) {
	if err := ValidateMapping(mapping); err != nil {
		return nil, err
	}

	grid, err := w.file.GetRows(w.sheet, rawValues)
	if err != nil {
		return nil, fmt.Errorf("error reading worksheet %s: %w", w.sheet, err)
	}

	fields := make([]string, 0, len(mapping))
	for field := range mapping {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	rows := make([]model.ExtractedRow, 0, len(grid))
	// index 0 is the header row
	for i := 1; i < len(grid); i++ {
		spreadsheetRow := i + 1
		values := make(map[string]string)
		for _, field := range fields {
			v, ok, err := w.CellValue(mapping[field], spreadsheetRow)
			if err != nil {
				return nil, fmt.Errorf("error reading row %d: %w", spreadsheetRow, err)
			}
			if ok {
				values[field] = v
			}
		}
		if len(values) == 0 {
			continue
		}
		rows = append(rows, model.ExtractedRow{Number: spreadsheetRow, Values: values})
	}

	return rows, nil
}

// ValidateMapping checks that every mapped column is a real column letter.
func ValidateMapping(mapping model.ColumnMapping) error {
	if len(mapping) == 0 {
		return fmt.Errorf("column mapping is empty")
	}
	for field, column := range mapping {
		if err := ValidateColumn(column); err != nil {
			return fmt.Errorf("invalid column for %s: %w", field, err)
		}
	}
	return nil
}

// ValidateColumn accepts one or two letter column names such as F or AB.
func ValidateColumn(column string) error {
	if len(column) == 0 || len(column) > 2 {
		return fmt.Errorf("column %q must be one or two letters", column)
	}
	for _, r := range column {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("column %q must be upper case letters", column)
		}
	}
	_, err := excelize.ColumnNameToNumber(column)
	return err
}
