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

package notifier

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/internal/compose"
	"github.com/blnkfinance/notifier/internal/excel"
	"github.com/blnkfinance/notifier/internal/files"
	"github.com/blnkfinance/notifier/internal/notification"
	"github.com/blnkfinance/notifier/internal/settings"
	"github.com/blnkfinance/notifier/internal/validate"
	"github.com/blnkfinance/notifier/model"
)

// UploadRequest is one spreadsheet to turn into SMS dispatches.
type UploadRequest struct {
	Type     model.RecordType
	Filename string
	File     io.Reader
	Mode     model.ValidationMode
	// SelectedDate applies to attendance. Zero means today.
	SelectedDate time.Time
	// SelectedMonth applies to salary, 1-12. Zero means the current month.
	SelectedMonth int
}

// rowOutcome is what one dispatch task reports back to the batch.
type rowOutcome struct {
	queued     bool
	dispatched bool
	sent       bool
	duration   time.Duration
}

// ProcessUpload runs one upload end to end and always waits for every
// dispatch to settle before returning the summary.
func (n *Notifier) ProcessUpload(ctx context.Context, req UploadRequest) (*model.BatchSummary, error) {
	started := n.now()
	ctx, span := tracer.Start(ctx, "Processing upload")
	defer span.End()
	span.SetAttributes(attribute.String("batch.type", string(req.Type)), attribute.String("upload.filename", req.Filename))

	if !req.Type.Valid() {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Unknown record type", nil)
	}

	tmp, err := files.SaveUpload(n.config.Upload.TempDir, req.Filename, req.File, n.config.Upload.MaxSizeBytes)
	if err != nil {
		return nil, uploadError(err)
	}
	defer tmp.Cleanup()

	mapping, err := settings.Mapping(ctx, n.settings, req.Type)
	if err != nil {
		n.reportFatal(pkgerrors.Wrap(err, "resolving column mapping"))
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to load column settings", err)
	}

	rows, err := extractRows(tmp.Path(), mapping)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid Excel file", err)
	}
	if len(rows) == 0 {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "No valid data found in Excel file", nil)
	}

	var result validate.Result
	switch req.Type {
	case model.RecordTypeAttendance:
		selectedDate := req.SelectedDate
		if selectedDate.IsZero() {
			selectedDate = started
		}
		result = validate.Attendance(rows, req.Mode, selectedDate)
	case model.RecordTypeSalary:
		selectedMonth := req.SelectedMonth
		if selectedMonth == 0 {
			selectedMonth = int(started.Month())
		}
		result = validate.Salary(rows, req.Mode, selectedMonth)
	}

	batchID := model.GenerateBatchID(req.Type, started)
	logger := logrus.WithFields(logrus.Fields{
		"batch_id":  batchID,
		"type":      req.Type,
		"rows":      len(rows),
		"processed": len(result.Processed),
		"demo":      n.IsDemo(),
	})
	logger.Info("starting batch")

	outcomes := n.dispatchAll(ctx, batchID, result.Processed)

	summary := &model.BatchSummary{
		BatchID:       batchID,
		Type:          req.Type,
		TotalRows:     len(rows),
		ProcessedRows: len(result.Processed),
		Errors:        result.Errors,
		IsDemoMode:    n.IsDemo(),
	}
	var dispatchTime time.Duration
	dispatched := 0
	for _, o := range outcomes {
		if o.queued {
			summary.QueuedForSMS++
		}
		if o.dispatched {
			dispatched++
			dispatchTime += o.duration
		}
		if o.sent {
			summary.Sent++
		} else if o.queued {
			summary.Failed++
		}
	}
	if dispatched > 0 {
		summary.AverageDispatchTimeMs = (dispatchTime / time.Duration(dispatched)).Milliseconds()
	}
	summary.BatchProcessingTimeMs = n.now().Sub(started).Milliseconds()

	logger.WithFields(logrus.Fields{
		"sent":        summary.Sent,
		"failed":      summary.Failed,
		"duration_ms": summary.BatchProcessingTimeMs,
	}).Info("batch completed")

	n.publish(ctx, EventBatchCompleted, summary)
	return summary, nil
}

func extractRows(path string, mapping model.ColumnMapping) ([]model.ExtractedRow, error) {
	wb, err := excel.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return wb.ExtractRows(mapping)
}

func uploadError(err error) error {
	switch {
	case errors.Is(err, files.ErrUnsupportedType):
		return apierror.NewAPIError(apierror.ErrBadRequest, "Only Excel files (.xlsx, .xls) are allowed", nil)
	case errors.Is(err, files.ErrTooLarge):
		return apierror.NewAPIError(apierror.ErrTooLarge, "File exceeds the maximum upload size", nil)
	default:
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to store upload", err)
	}
}

// dispatchAll fans records out over a bounded pool. Dispatches are detached
// from ctx's cancellation so a dropped upload request cannot strand entries
// in pending.
func (n *Notifier) dispatchAll(ctx context.Context, batchID string, records []validate.Record) []rowOutcome {
	ctx = context.WithoutCancel(ctx)
	limit := n.config.SMS.Concurrency
	if limit <= 0 {
		limit = config.DefaultDispatchConcurrency
	}

	outcomes := make([]rowOutcome, len(records))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, record := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, record validate.Record) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithFields(logrus.Fields{"batch_id": batchID, "row": record.Row}).Errorf("dispatch panicked: %v", r)
				}
			}()
			outcomes[i] = n.processRecord(ctx, batchID, record)
		}(i, record)
	}

	wg.Wait()
	return outcomes
}

// processRecord creates the pending entry, dispatches and records the outcome
// for one row. Errors stay inside the row.
func (n *Notifier) processRecord(ctx context.Context, batchID string, record validate.Record) rowOutcome {
	logger := logrus.WithFields(logrus.Fields{"batch_id": batchID, "row": record.Row, "phone": record.Phone})

	entry := model.NewQueueEntry(batchID, record.Name, record.Phone, record.Data)
	entry.CreatedAt = n.now()
	if err := n.datasource.CreateQueueEntry(ctx, entry); err != nil {
		logger.WithError(err).Error("failed to create queue entry")
		return rowOutcome{}
	}

	templateID, variables, err := compose.Compose(record.Name, record.Data, n.templates, n.now())
	if err != nil {
		n.recordFailure(ctx, entry, err.Error())
		return rowOutcome{queued: true}
	}

	result := n.dispatcher.Send(ctx, record.Phone, templateID, variables)
	outcome := rowOutcome{queued: true, dispatched: true, duration: result.Duration}
	if !result.Success {
		logger.WithField("error", result.Error).Warn("sms dispatch failed")
		n.recordFailure(ctx, entry, result.Error)
		return outcome
	}

	if err := n.datasource.MarkQueueEntryCompleted(ctx, entry.ID, result.Response, n.now()); err != nil {
		logger.WithError(err).Error("failed to mark queue entry completed")
	}
	outcome.sent = true
	return outcome
}

func (n *Notifier) recordFailure(ctx context.Context, entry *model.QueueEntry, errMsg string) {
	record, err := n.datasource.MarkQueueEntryFailed(ctx, entry, errMsg, n.now())
	if err != nil {
		logrus.WithError(err).WithField("entry_id", entry.ID).Error("failed to record dispatch failure")
		return
	}
	n.publish(ctx, EventSMSFailed, record)
}

func (n *Notifier) reportFatal(err error) {
	notification.NotifyError(err)
}
