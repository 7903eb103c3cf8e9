package excel

import (
	"errors"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet of an exported workbook.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// WriteTable renders header and rows as a single-sheet xlsx document.
func WriteTable(w io.Writer, sheet string, header []string, rows [][]string) error {
	return WriteSheets(w, Sheet{Name: sheet, Header: header, Rows: rows})
}

// WriteSheets renders each sheet in order into one xlsx document.
func WriteSheets(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return errors.New("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheets[0].Name); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, sheet := range sheets {
		if i > 0 {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return err
			}
		}
		if err := writeSheet(f, sheet, style); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	if err := setRow(f, sheet.Name, 1, sheet.Header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheet.Name, 1, 1, headerStyle); err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		if err := setRow(f, sheet.Name, i+2, row); err != nil {
			return err
		}
	}

	if len(sheet.Header) > 0 {
		last, err := excelize.ColumnNumberToName(len(sheet.Header))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, "A", last, 20); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
