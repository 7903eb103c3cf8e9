package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/model"
)

func salaryEntry() model.QueueEntry {
	completed := fixedNow.Add(time.Minute)
	return model.QueueEntry{
		ID:    "sms_2",
		Type:  model.RecordTypeSalary,
		Name:  "Meena",
		Phone: "9876543210",
		Data: model.NewSalaryOutcome(model.SalaryData{
			EmployeeID:    "S12",
			GrossSalary:   decimal.NewFromInt(15000),
			PF:            decimal.NewFromInt(1800),
			ESI:           decimal.RequireFromString("112.5"),
			NetPay:        decimal.RequireFromString("13087.5"),
			Days:          26,
			SelectedMonth: 7,
		}),
		Status:      model.StatusCompleted,
		CreatedAt:   fixedNow,
		CompletedAt: &completed,
	}
}

func attendanceEntry() model.QueueEntry {
	failed := fixedNow.Add(time.Minute)
	errMsg := "provider timeout"
	return model.QueueEntry{
		ID:        "sms_1",
		BatchID:   "attendance_1",
		Type:      model.RecordTypeAttendance,
		Name:      "Ravi",
		Phone:     "9123456789",
		Data:      attendanceData("E7"),
		Status:    model.StatusFailed,
		Error:     &errMsg,
		CreatedAt: fixedNow,
		FailedAt:  &failed,
	}
}

func TestNewRecordRowAttendance(t *testing.T) {
	row := NewRecordRow(attendanceEntry(), fixedNow)

	assert.Equal(t, "E7", row.EmployeeID)
	assert.Equal(t, "05-08-2025", row.SelectedDate)
	assert.Equal(t, "09:00", row.InTime)
	assert.Equal(t, "provider timeout", row.Error)
	assert.Equal(t, "Ravi–E7|05-08-2025|09:00–18:00 -कुल-9:00", row.MessageTemplate)
	assert.Nil(t, row.GrossSalary)
	assert.Empty(t, row.SalaryMonth)
}

func TestNewRecordRowSalary(t *testing.T) {
	row := NewRecordRow(salaryEntry(), fixedNow)

	assert.Equal(t, "S12", row.EmployeeID)
	assert.Equal(t, 7, row.SelectedMonth)
	assert.Equal(t, "जुलाई", row.SalaryMonth)
	require.NotNil(t, row.NetPay)
	assert.True(t, row.NetPay.Equal(decimal.RequireFromString("13087.5")))
	assert.Contains(t, row.MessageTemplate, "Meena-S12|जुलाई-26-दिन|")
	assert.Empty(t, row.InTime)
}

func TestListRecords(t *testing.T) {
	env := newTestEnv(t)
	want := model.RecordFilter{Type: model.RecordTypeAttendance, Status: model.StatusFailed, Limit: 20, Offset: 20}

	env.db.On("CountQueueEntries", context.Background(), want).Return(int64(41), nil)
	env.db.On("ListQueueEntries", context.Background(), want).Return([]model.QueueEntry{attendanceEntry()}, nil)

	rows, page, err := env.notifier.ListRecords(context.Background(),
		model.RecordFilter{Type: model.RecordTypeAttendance, Status: model.StatusFailed}, 2, 20)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "sms_1", rows[0].ID)
	assert.Equal(t, model.Pagination{Page: 2, Limit: 20, Total: 41, Pages: 3}, page)
}

func TestListRecordsCapsPageSize(t *testing.T) {
	env := newTestEnv(t)
	want := model.RecordFilter{Limit: maxPageSize}

	env.db.On("CountQueueEntries", context.Background(), want).Return(int64(0), nil)
	env.db.On("ListQueueEntries", context.Background(), want).Return([]model.QueueEntry{}, nil)

	rows, page, err := env.notifier.ListRecords(context.Background(), model.RecordFilter{}, 0, 5000)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 0, page.Pages)
}

func TestListRecordsRejectsFilters(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.notifier.ListRecords(context.Background(), model.RecordFilter{Type: "bonus"}, 1, 10)
	code, _ := apierror.CodeOf(err)
	assert.Equal(t, apierror.ErrBadRequest, code)

	_, _, err = env.notifier.ListRecords(context.Background(), model.RecordFilter{Status: "sent"}, 1, 10)
	code, _ = apierror.CodeOf(err)
	assert.Equal(t, apierror.ErrBadRequest, code)
}

func TestListFailed(t *testing.T) {
	env := newTestEnv(t)
	records := []model.FailedRecord{*failedSalaryRecord()}
	env.db.On("ListFailedRecords", context.Background(), model.RecordTypeSalary, 10, 0).Return(records, int64(1), nil)

	got, page, err := env.notifier.ListFailed(context.Background(), model.RecordTypeSalary, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 1, page.Pages)
}

func TestQueueStatus(t *testing.T) {
	env := newTestEnv(t)
	counts := model.StatusCounts{Pending: 1, Completed: 8, Failed: 2, Total: 11}
	env.db.On("QueueStatusCounts", context.Background(), model.RecordTypeSalary).Return(counts, nil)

	got, err := env.notifier.QueueStatus(context.Background(), model.RecordTypeSalary)
	require.NoError(t, err)
	assert.Equal(t, counts, got)

	_, err = env.notifier.QueueStatus(context.Background(), "bonus")
	assert.Error(t, err)
}
