package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/model"
)

const attendanceJSON = `{"employeeId":"E1","inTime":"09:00:00","outTime":"18:00:00","workDuration":"09:00","selectedDate":"05-08-2025"}`

func newMockDatasource(t *testing.T) (Datasource, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return Datasource{Conn: db}, mock
}

func attendanceEntry() *model.QueueEntry {
	return model.NewQueueEntry("attendance_1_1", "Asha", "9876543210", model.NewAttendanceOutcome(model.AttendanceData{
		EmployeeID:   "E1",
		InTime:       "09:00:00",
		OutTime:      "18:00:00",
		WorkDuration: "09:00",
		SelectedDate: "05-08-2025",
	}))
}

func queueRow() []string {
	return []string{"entry_id", "batch_id", "type", "name", "phone", "data", "status", "retry_count", "error", "response", "created_at", "completed_at", "failed_at"}
}

func assertCode(t *testing.T, err error, code apierror.ErrorCode) {
	t.Helper()
	got, ok := apierror.CodeOf(err)
	require.True(t, ok, "expected APIError, got %v", err)
	assert.Equal(t, code, got)
}

func TestCreateQueueEntry(t *testing.T) {
	ds, mock := newMockDatasource(t)
	entry := attendanceEntry()

	mock.ExpectExec("INSERT INTO notifier.queue_entries").
		WithArgs(entry.ID, "attendance_1_1", model.RecordTypeAttendance, "Asha", "9876543210", sqlmock.AnyArg(), model.StatusPending, 0, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, ds.CreateQueueEntry(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateQueueEntry_Conflict(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectExec("INSERT INTO notifier.queue_entries").
		WillReturnError(&pq.Error{Code: "23505"})

	err := ds.CreateQueueEntry(context.Background(), attendanceEntry())
	assertCode(t, err, apierror.ErrConflict)
}

func TestMarkQueueEntryCompleted(t *testing.T) {
	ds, mock := newMockDatasource(t)
	at := time.Now()

	mock.ExpectExec("UPDATE notifier.queue_entries").
		WithArgs("sms_1", model.StatusCompleted, []byte(`{"return":true,"request_id":"r1"}`), at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := ds.MarkQueueEntryCompleted(context.Background(), "sms_1", &model.ProviderResponse{Return: true, RequestID: "r1"}, at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkQueueEntryCompleted_NotFound(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectExec("UPDATE notifier.queue_entries").WillReturnResult(sqlmock.NewResult(0, 0))

	err := ds.MarkQueueEntryCompleted(context.Background(), "sms_missing", &model.ProviderResponse{}, time.Now())
	assertCode(t, err, apierror.ErrNotFound)
}

func TestMarkQueueEntryFailed(t *testing.T) {
	ds, mock := newMockDatasource(t)
	entry := attendanceEntry()
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notifier.queue_entries").
		WithArgs(entry.ID, model.StatusFailed, "DND number", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifier.failed_records").
		WithArgs(sqlmock.AnyArg(), model.RecordTypeAttendance, "Asha", "9876543210", []byte(attendanceJSON),
			"DND number", model.FailedStatusFailed, 0, at, entry.ID, at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	record, err := ds.MarkQueueEntryFailed(context.Background(), entry, "DND number", at)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, record.ParentQueueEntryID)
	assert.Contains(t, record.ID, "failed_")
	assert.Equal(t, model.StatusFailed, entry.Status)
	assert.Equal(t, "DND number", *entry.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkQueueEntryFailed_RollsBack(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE notifier.queue_entries").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifier.failed_records").WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := ds.MarkQueueEntryFailed(context.Background(), attendanceEntry(), "timeout", time.Now())
	assertCode(t, err, apierror.ErrInternalServer)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListQueueEntries_ScansResponse(t *testing.T) {
	ds, mock := newMockDatasource(t)
	created := time.Date(2025, 8, 5, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(queueRow()).
		AddRow("sms_1", "attendance_1_1", "attendance", "Asha", "9876543210", []byte(attendanceJSON), "completed", 0,
			nil, []byte(`{"return":true,"request_id":"r1","message":["SMS sent successfully."]}`), created, created, nil)
	mock.ExpectQuery("SELECT (.+) FROM notifier.queue_entries").WillReturnRows(rows)

	entries, err := ds.ListQueueEntries(context.Background(), model.RecordFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, model.StatusCompleted, entry.Status)
	assert.Equal(t, "05-08-2025", entry.Data.Attendance.SelectedDate)
	assert.Nil(t, entry.Error)
	assert.Nil(t, entry.FailedAt)
	require.NotNil(t, entry.Response)
	assert.Equal(t, "SMS sent successfully.", entry.Response.MessageText())
}

func TestQueueWhere(t *testing.T) {
	where, args := queueWhere(model.RecordFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, args = queueWhere(model.RecordFilter{Type: model.RecordTypeSalary, Status: model.StatusFailed, Month: 8})
	assert.Equal(t, " WHERE type = $1 AND status = $2 AND (data->>'selectedMonth')::int = $3", where)
	assert.Equal(t, []interface{}{model.RecordTypeSalary, model.StatusFailed, 8}, args)

	where, _ = queueWhere(model.RecordFilter{Date: "05-08-2025"})
	assert.Equal(t, " WHERE data->>'selectedDate' = $1", where)
}

func TestListQueueEntries(t *testing.T) {
	ds, mock := newMockDatasource(t)
	created := time.Now()
	salaryJSON := `{"employeeId":"E2","grossSalary":"30000","pf":"1800","esi":"200","netPay":"28000","days":26,"selectedMonth":8}`

	rows := sqlmock.NewRows(queueRow()).
		AddRow("sms_2", "salary_1_1", "salary", "Ravi", "9876500000", []byte(salaryJSON), "failed", 0,
			"DND number", nil, created, nil, created)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE type = $1 AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs(model.RecordTypeSalary, model.StatusFailed, 10, 20).
		WillReturnRows(rows)

	entries, err := ds.ListQueueEntries(context.Background(), model.RecordFilter{
		Type: model.RecordTypeSalary, Status: model.StatusFailed, Limit: 10, Offset: 20,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, decimal.RequireFromString("28000").Equal(entries[0].Data.Salary.NetPay))
	assert.Equal(t, "DND number", *entries[0].Error)
	assert.NotNil(t, entries[0].FailedAt)
}

func TestListQueueEntries_Unbounded(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectQuery(`ORDER BY created_at DESC$`).
		WithArgs(model.RecordTypeAttendance).
		WillReturnRows(sqlmock.NewRows(queueRow()))

	entries, err := ds.ListQueueEntries(context.Background(), model.RecordFilter{Type: model.RecordTypeAttendance})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestCountQueueEntries(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifier.queue_entries WHERE type = $1")).
		WithArgs(model.RecordTypeAttendance).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := ds.CountQueueEntries(context.Background(), model.RecordFilter{Type: model.RecordTypeAttendance})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestQueueStatusCounts(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 1).
			AddRow("completed", 7).
			AddRow("failed", 2))

	counts, err := ds.QueueStatusCounts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{Pending: 1, Completed: 7, Failed: 2, Total: 10}, counts)
}
