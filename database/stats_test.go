package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/model"
)

func TestSystemStats(t *testing.T) {
	ds, mock := newMockDatasource(t)
	oldest := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	newest := time.Date(2025, 8, 5, 18, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("MIN(created_at), MAX(created_at) FROM notifier.queue_entries")).
		WillReturnRows(sqlmock.NewRows([]string{"count", "min", "max"}).AddRow(12, oldest, newest))
	mock.ExpectQuery(regexp.QuoteMeta("MIN(final_failure_at), MAX(final_failure_at) FROM notifier.failed_records")).
		WillReturnRows(sqlmock.NewRows([]string{"count", "min", "max"}).AddRow(0, nil, nil))

	stats, err := ds.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.QueueEntries.Count)
	assert.Equal(t, oldest, *stats.QueueEntries.Oldest)
	assert.Equal(t, newest, *stats.QueueEntries.Newest)
	assert.Nil(t, stats.FailedRecords.Oldest)
	assert.Equal(t, int64(12), stats.Total)
}

func TestDailyCounts(t *testing.T) {
	ds, mock := newMockDatasource(t)
	day := time.Date(2025, 8, 5, 15, 30, 0, 0, time.UTC)
	start := time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("GROUP BY type, status").
		WithArgs(start, start.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{"type", "status", "count"}).
			AddRow("attendance", "completed", 40).
			AddRow("attendance", "failed", 2).
			AddRow("salary", "pending", 1))

	counts, err := ds.DailyCounts(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCounts{Completed: 40, Failed: 2, Total: 42}, counts[model.RecordTypeAttendance])
	assert.Equal(t, model.StatusCounts{Pending: 1, Total: 1}, counts[model.RecordTypeSalary])
}

func TestDeleteAll(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notifier.failed_records").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM notifier.queue_entries").WillReturnResult(sqlmock.NewResult(0, 9))
	mock.ExpectCommit()

	queued, failed, err := ds.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), queued)
	assert.Equal(t, int64(3), failed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAll_Failure(t *testing.T) {
	ds, mock := newMockDatasource(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM notifier.failed_records").WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	_, _, err := ds.DeleteAll(context.Background())
	assertCode(t, err, apierror.ErrInternalServer)
	assert.NoError(t, mock.ExpectationsWereMet())
}
