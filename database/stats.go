package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/model"
)

func (d Datasource) tableStats(ctx context.Context, query string) (model.TableStats, error) {
	var (
		stats          model.TableStats
		oldest, newest sql.NullTime
	)
	if err := d.Conn.QueryRowContext(ctx, query).Scan(&stats.Count, &oldest, &newest); err != nil {
		return model.TableStats{}, err
	}
	stats.Oldest = timePtr(oldest)
	stats.Newest = timePtr(newest)
	return stats, nil
}

func (d Datasource) SystemStats(ctx context.Context) (model.SystemStats, error) {
	ctx, span := tracer.Start(ctx, "Collecting system stats")
	defer span.End()

	queueStats, err := d.tableStats(ctx, `SELECT COUNT(*), MIN(created_at), MAX(created_at) FROM notifier.queue_entries`)
	if err != nil {
		return model.SystemStats{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to collect queue stats", err)
	}
	failedStats, err := d.tableStats(ctx, `SELECT COUNT(*), MIN(final_failure_at), MAX(final_failure_at) FROM notifier.failed_records`)
	if err != nil {
		return model.SystemStats{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to collect failed record stats", err)
	}

	return model.SystemStats{
		QueueEntries:  queueStats,
		FailedRecords: failedStats,
		Total:         queueStats.Count + failedStats.Count,
	}, nil
}

// DailyCounts tallies the queue entries created on day's calendar date,
// in day's location, per type and status.
func (d Datasource) DailyCounts(ctx context.Context, day time.Time) (map[model.RecordType]model.StatusCounts, error) {
	ctx, span := tracer.Start(ctx, "Counting daily queue entries")
	defer span.End()

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT type, status, COUNT(*)
		FROM notifier.queue_entries
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY type, status
	`, start, start.AddDate(0, 0, 1))
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count daily entries", err)
	}
	defer rows.Close()

	counts := map[model.RecordType]model.StatusCounts{
		model.RecordTypeAttendance: {},
		model.RecordTypeSalary:     {},
	}
	for rows.Next() {
		var (
			recordType model.RecordType
			status     model.QueueStatus
			n          int64
		)
		if err := rows.Scan(&recordType, &status, &n); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan daily count", err)
		}
		c := counts[recordType]
		c.Add(status, n)
		counts[recordType] = c
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating daily counts", err)
	}
	return counts, nil
}

// DeleteAll empties both tables and returns how many queue entries and
// failed records went.
func (d Datasource) DeleteAll(ctx context.Context) (int64, int64, error) {
	ctx, span := tracer.Start(ctx, "Deleting all records")
	defer span.End()

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deleted := make([]int64, 2)
	for i, stmt := range []string{
		`DELETE FROM notifier.failed_records`,
		`DELETE FROM notifier.queue_entries`,
	} {
		result, err := tx.ExecContext(ctx, stmt)
		if err != nil {
			span.RecordError(err)
			return 0, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete records", err)
		}
		if deleted[i], err = result.RowsAffected(); err != nil {
			return 0, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read affected rows", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return deleted[1], deleted[0], nil
}
