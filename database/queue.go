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

package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/model"
)

const queueColumns = `entry_id, batch_id, type, name, phone, data, status, retry_count, error, response, created_at, completed_at, failed_at`

var tracer = otel.Tracer("notifier.database")

// writeError maps a driver error on insert/update to an APIError.
func writeError(err error, action string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return apierror.NewAPIError(apierror.ErrConflict, "Record with this ID already exists", err)
	}
	return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to "+action, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueueEntry(row rowScanner) (*model.QueueEntry, error) {
	var (
		entry       model.QueueEntry
		batchID     sql.NullString
		dataJSON    []byte
		errMsg      sql.NullString
		respJSON    []byte
		completedAt sql.NullTime
		failedAt    sql.NullTime
	)
	err := row.Scan(&entry.ID, &batchID, &entry.Type, &entry.Name, &entry.Phone, &dataJSON,
		&entry.Status, &entry.RetryCount, &errMsg, &respJSON, &entry.CreatedAt, &completedAt, &failedAt)
	if err != nil {
		return nil, err
	}

	entry.Data, err = model.DecodeOutcomeData(entry.Type, dataJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding data of %s: %w", entry.ID, err)
	}
	entry.BatchID = batchID.String
	if errMsg.Valid {
		entry.Error = &errMsg.String
	}
	if len(respJSON) > 0 {
		entry.Response = &model.ProviderResponse{}
		if err := json.Unmarshal(respJSON, entry.Response); err != nil {
			return nil, fmt.Errorf("decoding response of %s: %w", entry.ID, err)
		}
	}
	entry.CompletedAt = timePtr(completedAt)
	entry.FailedAt = timePtr(failedAt)
	return &entry, nil
}

func (d Datasource) CreateQueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	ctx, span := tracer.Start(ctx, "Saving queue entry to db")
	defer span.End()
	span.SetAttributes(attribute.String("entry.id", entry.ID), attribute.String("entry.type", string(entry.Type)))

	dataJSON, err := json.Marshal(entry.Data)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal record data", err)
	}

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO notifier.queue_entries (entry_id, batch_id, type, name, phone, data, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, nullString(entry.BatchID), entry.Type, entry.Name, entry.Phone, dataJSON, entry.Status, entry.RetryCount, entry.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return writeError(err, "create queue entry")
	}
	return nil
}

func (d Datasource) MarkQueueEntryCompleted(ctx context.Context, id string, response *model.ProviderResponse, at time.Time) error {
	ctx, span := tracer.Start(ctx, "Marking queue entry completed")
	defer span.End()

	respJSON, err := json.Marshal(response)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal provider response", err)
	}

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE notifier.queue_entries
		SET status = $2, response = $3, completed_at = $4, error = NULL
		WHERE entry_id = $1
	`, id, model.StatusCompleted, respJSON, at)
	if err != nil {
		span.RecordError(err)
		return writeError(err, "update queue entry")
	}
	return requireAffected(result, "Queue entry not found")
}

func (d Datasource) MarkQueueEntryFailed(ctx context.Context, entry *model.QueueEntry, errMsg string, at time.Time) (*model.FailedRecord, error) {
	ctx, span := tracer.Start(ctx, "Marking queue entry failed")
	defer span.End()

	record := model.NewFailedRecord(entry, errMsg, at)
	dataJSON, err := json.Marshal(record.Data)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal record data", err)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE notifier.queue_entries
		SET status = $2, error = $3, failed_at = $4
		WHERE entry_id = $1
	`, entry.ID, model.StatusFailed, errMsg, at)
	if err != nil {
		span.RecordError(err)
		return nil, writeError(err, "update queue entry")
	}
	if err := requireAffected(result, "Queue entry not found"); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notifier.failed_records (failed_id, type, name, phone, data, error, status, retry_count, final_failure_at, parent_entry_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, record.ID, record.Type, record.Name, record.Phone, dataJSON, record.Error, record.Status, record.RetryCount,
		record.FinalFailureAt, record.ParentQueueEntryID, record.CreatedAt)
	if err != nil {
		span.RecordError(err)
		return nil, writeError(err, "create failed record")
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}

	entry.Status = model.StatusFailed
	entry.Error = &errMsg
	entry.FailedAt = &at
	return record, nil
}

// queueWhere renders the filter as a WHERE clause with positional args.
func queueWhere(filter model.RecordFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Date != "" {
		add("data->>'selectedDate' = $%d", filter.Date)
	}
	if filter.Month > 0 {
		add("(data->>'selectedMonth')::int = $%d", filter.Month)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListQueueEntries returns entries newest first. A zero Limit returns every match.
func (d Datasource) ListQueueEntries(ctx context.Context, filter model.RecordFilter) ([]model.QueueEntry, error) {
	ctx, span := tracer.Start(ctx, "Listing queue entries")
	defer span.End()

	where, args := queueWhere(filter)
	query := `SELECT ` + queueColumns + ` FROM notifier.queue_entries` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve queue entries", err)
	}
	defer rows.Close()

	entries := []model.QueueEntry{}
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan queue entry", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating queue entries", err)
	}
	return entries, nil
}

func (d Datasource) CountQueueEntries(ctx context.Context, filter model.RecordFilter) (int64, error) {
	ctx, span := tracer.Start(ctx, "Counting queue entries")
	defer span.End()

	where, args := queueWhere(filter)
	var count int64
	err := d.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifier.queue_entries`+where, args...).Scan(&count)
	if err != nil {
		return 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count queue entries", err)
	}
	return count, nil
}

// QueueStatusCounts tallies entries per status. An empty recordType counts both types.
func (d Datasource) QueueStatusCounts(ctx context.Context, recordType model.RecordType) (model.StatusCounts, error) {
	ctx, span := tracer.Start(ctx, "Counting queue entries by status")
	defer span.End()

	where, args := queueWhere(model.RecordFilter{Type: recordType})
	rows, err := d.Conn.QueryContext(ctx, `SELECT status, COUNT(*) FROM notifier.queue_entries`+where+` GROUP BY status`, args...)
	if err != nil {
		return model.StatusCounts{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count queue entries", err)
	}
	defer rows.Close()

	var counts model.StatusCounts
	for rows.Next() {
		var (
			status model.QueueStatus
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return model.StatusCounts{}, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan status count", err)
		}
		counts.Add(status, n)
	}
	if err := rows.Err(); err != nil {
		return model.StatusCounts{}, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating status counts", err)
	}
	return counts, nil
}

func requireAffected(result sql.Result, notFound string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to read affected rows", err)
	}
	if n == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, notFound, nil)
	}
	return nil
}
