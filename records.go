package notifier

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/internal/compose"
	"github.com/blnkfinance/notifier/internal/normalize"
	"github.com/blnkfinance/notifier/model"
)

const maxPageSize = 100

// RecordRow is the flat projection of a queue entry used by listings and
// exports. Only the fields of the entry's type are populated.
type RecordRow struct {
	ID              string            `json:"id"`
	BatchID         string            `json:"batchId,omitempty"`
	Type            model.RecordType  `json:"type"`
	Name            string            `json:"name"`
	Phone           string            `json:"phone"`
	EmployeeID      string            `json:"employeeId"`
	Status          model.QueueStatus `json:"status"`
	RetryCount      int               `json:"retryCount"`
	Error           string            `json:"error,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	FailedAt        *time.Time        `json:"failedAt,omitempty"`
	MessageTemplate string            `json:"messageTemplate"`

	SelectedDate string `json:"selectedDate,omitempty"`
	InTime       string `json:"inTime,omitempty"`
	OutTime      string `json:"outTime,omitempty"`
	WorkDuration string `json:"workDuration,omitempty"`

	SelectedMonth int              `json:"selectedMonth,omitempty"`
	SalaryMonth   string           `json:"salaryMonth,omitempty"`
	Days          int              `json:"days,omitempty"`
	GrossSalary   *decimal.Decimal `json:"grossSalary,omitempty"`
	PF            *decimal.Decimal `json:"pf,omitempty"`
	ESI           *decimal.Decimal `json:"esi,omitempty"`
	NetPay        *decimal.Decimal `json:"netPay,omitempty"`
}

// NewRecordRow flattens entry and renders the message it carried.
func NewRecordRow(entry model.QueueEntry, now time.Time) RecordRow {
	row := RecordRow{
		ID:          entry.ID,
		BatchID:     entry.BatchID,
		Type:        entry.Type,
		Name:        entry.Name,
		Phone:       entry.Phone,
		EmployeeID:  entry.Data.EmployeeID(),
		Status:      entry.Status,
		RetryCount:  entry.RetryCount,
		CreatedAt:   entry.CreatedAt,
		CompletedAt: entry.CompletedAt,
		FailedAt:    entry.FailedAt,
	}
	if entry.Error != nil {
		row.Error = *entry.Error
	}

	switch entry.Data.Type {
	case model.RecordTypeAttendance:
		a := entry.Data.Attendance
		row.SelectedDate = a.SelectedDate
		row.InTime = a.InTime
		row.OutTime = a.OutTime
		row.WorkDuration = a.WorkDuration
	case model.RecordTypeSalary:
		s := entry.Data.Salary
		row.SelectedMonth = s.SelectedMonth
		row.SalaryMonth = normalize.HindiMonth(s.SelectedMonth)
		row.Days = s.Days
		row.GrossSalary = &s.GrossSalary
		row.PF = &s.PF
		row.ESI = &s.ESI
		row.NetPay = &s.NetPay
	}

	message, err := compose.Message(entry.Name, entry.Data, now)
	if err != nil {
		logrus.WithError(err).WithField("entry_id", entry.ID).Warn("cannot render message")
	}
	row.MessageTemplate = message
	return row
}

// ListRecords returns one page of queue entries matching filter, newest first.
func (n *Notifier) ListRecords(ctx context.Context, filter model.RecordFilter, page, limit int) ([]RecordRow, model.Pagination, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, model.Pagination{}, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid record type", nil)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.Pagination{}, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid status filter", nil)
	}

	page, limit, offset := model.Paginate(page, limit, maxPageSize)
	filter.Limit, filter.Offset = limit, offset

	total, err := n.datasource.CountQueueEntries(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	entries, err := n.datasource.ListQueueEntries(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	now := n.now()
	rows := make([]RecordRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, NewRecordRow(entry, now))
	}
	return rows, model.NewPagination(page, limit, total), nil
}

// ListFailed returns one page of failed records, most recent failure first.
func (n *Notifier) ListFailed(ctx context.Context, recordType model.RecordType, page, limit int) ([]model.FailedRecord, model.Pagination, error) {
	if recordType != "" && !recordType.Valid() {
		return nil, model.Pagination{}, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid record type", nil)
	}
	page, limit, offset := model.Paginate(page, limit, maxPageSize)
	records, total, err := n.datasource.ListFailedRecords(ctx, recordType, limit, offset)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return records, model.NewPagination(page, limit, total), nil
}

// QueueStatus counts entries per status, optionally for one record type.
func (n *Notifier) QueueStatus(ctx context.Context, recordType model.RecordType) (model.StatusCounts, error) {
	if recordType != "" && !recordType.Valid() {
		return model.StatusCounts{}, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid record type", nil)
	}
	return n.datasource.QueueStatusCounts(ctx, recordType)
}
