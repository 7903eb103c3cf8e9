package notifier

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/internal/excel"
	"github.com/blnkfinance/notifier/internal/files"
	"github.com/blnkfinance/notifier/internal/normalize"
	"github.com/blnkfinance/notifier/model"
)

type ExportFormat string

const (
	FormatExcel ExportFormat = "excel"
	FormatCSV   ExportFormat = "csv"
)

// ParseExportFormat accepts excel (default), xlsx and csv.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "excel", "xlsx":
		return FormatExcel, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", apierror.NewAPIError(apierror.ErrBadRequest, "Unsupported export format", nil)
}

func (f ExportFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return files.MimeXLSX
}

func (f ExportFormat) Extension() string {
	if f == FormatCSV {
		return "csv"
	}
	return "xlsx"
}

// ExportFilename names a download, e.g. salary_data_1722850000000.xlsx.
func ExportFilename(recordType model.RecordType, format ExportFormat, at time.Time) string {
	return fmt.Sprintf("%s_data_%d.%s", recordType, at.UnixMilli(), format.Extension())
}

type exportColumn struct {
	header string
	value  func(RecordRow) string
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

var commonLeading = []exportColumn{
	{"Name", func(r RecordRow) string { return r.Name }},
	{"Phone", func(r RecordRow) string { return r.Phone }},
	{"Employee ID", func(r RecordRow) string { return r.EmployeeID }},
}

var commonTrailing = []exportColumn{
	{"Status", func(r RecordRow) string { return string(r.Status) }},
	{"Retry Count", func(r RecordRow) string { return strconv.Itoa(r.RetryCount) }},
	{"Error", func(r RecordRow) string { return r.Error }},
	{"Created At", func(r RecordRow) string { return r.CreatedAt.Format(time.RFC3339) }},
	{"Completed At", func(r RecordRow) string { return optionalTime(r.CompletedAt) }},
	{"Failed At", func(r RecordRow) string { return optionalTime(r.FailedAt) }},
	{"Message", func(r RecordRow) string { return r.MessageTemplate }},
}

func exportColumns(recordType model.RecordType) ([]exportColumn, error) {
	var specific []exportColumn
	switch recordType {
	case model.RecordTypeAttendance:
		specific = []exportColumn{
			{"Date", func(r RecordRow) string { return r.SelectedDate }},
			{"In Time", func(r RecordRow) string { return r.InTime }},
			{"Out Time", func(r RecordRow) string { return r.OutTime }},
			{"Work Duration", func(r RecordRow) string { return normalize.FormatWorkDuration(r.WorkDuration) }},
		}
	case model.RecordTypeSalary:
		specific = []exportColumn{
			{"Month", func(r RecordRow) string { return r.SalaryMonth }},
			{"Days", func(r RecordRow) string { return strconv.Itoa(r.Days) }},
			{"Gross Salary", func(r RecordRow) string { return r.GrossSalary.String() }},
			{"PF", func(r RecordRow) string { return r.PF.String() }},
			{"ESI", func(r RecordRow) string { return r.ESI.String() }},
			{"Net Pay", func(r RecordRow) string { return r.NetPay.StringFixed(2) }},
		}
	default:
		return nil, fmt.Errorf("no export layout for record type %q", recordType)
	}

	columns := make([]exportColumn, 0, len(commonLeading)+len(specific)+len(commonTrailing))
	columns = append(columns, commonLeading...)
	columns = append(columns, specific...)
	return append(columns, commonTrailing...), nil
}

// buildSheet renders entries of one record type as a worksheet.
func buildSheet(recordType model.RecordType, entries []model.QueueEntry, now time.Time) (excel.Sheet, error) {
	columns, err := exportColumns(recordType)
	if err != nil {
		return excel.Sheet{}, err
	}

	sheet := excel.Sheet{Name: string(recordType), Header: make([]string, len(columns))}
	for i, c := range columns {
		sheet.Header[i] = c.header
	}
	for _, entry := range entries {
		if entry.Type != recordType {
			continue
		}
		row := NewRecordRow(entry, now)
		values := make([]string, len(columns))
		for i, c := range columns {
			values[i] = c.value(row)
		}
		sheet.Rows = append(sheet.Rows, values)
	}
	return sheet, nil
}

// Export writes every entry matching filter to w. filter.Type is required;
// pagination fields are ignored.
func (n *Notifier) Export(ctx context.Context, filter model.RecordFilter, format ExportFormat, w io.Writer) error {
	ctx, span := tracer.Start(ctx, "Exporting records")
	defer span.End()

	if !filter.Type.Valid() {
		return apierror.NewAPIError(apierror.ErrBadRequest, "Invalid record type", nil)
	}
	filter.Limit, filter.Offset = 0, 0

	entries, err := n.datasource.ListQueueEntries(ctx, filter)
	if err != nil {
		return err
	}
	sheet, err := buildSheet(filter.Type, entries, n.now())
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to build export", err)
	}

	switch format {
	case FormatCSV:
		err = writeCSV(w, sheet)
	default:
		err = excel.WriteSheets(w, sheet)
	}
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to write export", err)
	}
	return nil
}

// writeCSV prefixes a UTF-8 byte order mark so spreadsheet tools render
// the Devanagari text correctly.
func writeCSV(w io.Writer, sheet excel.Sheet) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(sheet.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(sheet.Rows); err != nil {
		return err
	}
	return cw.Error()
}
