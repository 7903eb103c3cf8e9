package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/model"
)

const failedColumns = `failed_id, type, name, phone, data, error, status, retry_count, retry_at, final_failure_at, parent_entry_id, created_at`

func scanFailedRecord(row rowScanner) (*model.FailedRecord, error) {
	var (
		record   model.FailedRecord
		dataJSON []byte
		retryAt  sql.NullTime
		parentID sql.NullString
	)
	err := row.Scan(&record.ID, &record.Type, &record.Name, &record.Phone, &dataJSON, &record.Error,
		&record.Status, &record.RetryCount, &retryAt, &record.FinalFailureAt, &parentID, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.Data, err = model.DecodeOutcomeData(record.Type, dataJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding data of %s: %w", record.ID, err)
	}
	record.RetryAt = timePtr(retryAt)
	record.ParentQueueEntryID = parentID.String
	return &record, nil
}

func (d Datasource) GetFailedRecord(ctx context.Context, id string) (*model.FailedRecord, error) {
	ctx, span := tracer.Start(ctx, "Getting failed record from db")
	defer span.End()

	row := d.Conn.QueryRowContext(ctx, `SELECT `+failedColumns+` FROM notifier.failed_records WHERE failed_id = $1`, id)
	record, err := scanFailedRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Failed record with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve failed record", err)
	}
	return record, nil
}

// ListFailedRecords returns one page of failed records, most recent failure
// first, with the total match count.
func (d Datasource) ListFailedRecords(ctx context.Context, recordType model.RecordType, limit, offset int) ([]model.FailedRecord, int64, error) {
	ctx, span := tracer.Start(ctx, "Listing failed records")
	defer span.End()

	where, args := "", []interface{}{}
	if recordType != "" {
		where = " WHERE type = $1"
		args = append(args, recordType)
	}

	var total int64
	if err := d.Conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifier.failed_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to count failed records", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+failedColumns+` FROM notifier.failed_records%s ORDER BY final_failure_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := d.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve failed records", err)
	}
	defer rows.Close()

	records := []model.FailedRecord{}
	for rows.Next() {
		record, err := scanFailedRecord(rows)
		if err != nil {
			return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan failed record", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apierror.NewAPIError(apierror.ErrInternalServer, "Error iterating failed records", err)
	}
	return records, total, nil
}

func (d Datasource) MarkFailedRecordRetrying(ctx context.Context, id string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "Marking failed record retrying")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE notifier.failed_records SET status = $2, retry_at = $3 WHERE failed_id = $1
	`, id, model.FailedStatusRetrying, at)
	if err != nil {
		span.RecordError(err)
		return writeError(err, "update failed record")
	}
	return requireAffected(result, "Failed record not found")
}

func (d Datasource) UpdateFailedRecordAfterRetry(ctx context.Context, id string, errMsg string, at time.Time) error {
	ctx, span := tracer.Start(ctx, "Recording failed retry")
	defer span.End()

	result, err := d.Conn.ExecContext(ctx, `
		UPDATE notifier.failed_records
		SET status = $2, error = $3, final_failure_at = $4, retry_count = retry_count + 1
		WHERE failed_id = $1
	`, id, model.FailedStatusFailed, errMsg, at)
	if err != nil {
		span.RecordError(err)
		return writeError(err, "update failed record")
	}
	return requireAffected(result, "Failed record not found")
}

func (d Datasource) CompleteRetry(ctx context.Context, record *model.FailedRecord, response *model.ProviderResponse, at time.Time) (*model.QueueEntry, error) {
	ctx, span := tracer.Start(ctx, "Completing retry")
	defer span.End()
	span.SetAttributes(attribute.String("failed.id", record.ID))

	entry := &model.QueueEntry{
		ID:          model.GenerateUUIDWithSuffix("sms"),
		Type:        record.Type,
		Name:        record.Name,
		Phone:       record.Phone,
		Data:        record.Data,
		Status:      model.StatusCompleted,
		RetryCount:  record.RetryCount + 1,
		Response:    response,
		CreatedAt:   at,
		CompletedAt: &at,
	}
	dataJSON, err := json.Marshal(entry.Data)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal record data", err)
	}
	respJSON, err := json.Marshal(response)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal provider response", err)
	}

	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notifier.queue_entries (entry_id, type, name, phone, data, status, retry_count, response, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, entry.ID, entry.Type, entry.Name, entry.Phone, dataJSON, entry.Status, entry.RetryCount, respJSON, at, at)
	if err != nil {
		span.RecordError(err)
		return nil, writeError(err, "record retried entry")
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM notifier.failed_records WHERE failed_id = $1`, record.ID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete failed record", err)
	}
	if err := requireAffected(result, "Failed record not found"); err != nil {
		return nil, err
	}

	if record.ParentQueueEntryID != "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notifier.queue_entries WHERE entry_id = $1`, record.ParentQueueEntryID); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to delete original queue entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to commit transaction", err)
	}
	return entry, nil
}
