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
	"time"

	"github.com/blnkfinance/notifier/model"
)

// IDataSource is the outcome store: every dispatch attempt and every
// terminally failed record lives behind it.
type IDataSource interface {
	queue
	failed
	stats
}

// queue defines methods for dispatch attempts.
type queue interface {
	CreateQueueEntry(ctx context.Context, entry *model.QueueEntry) error
	MarkQueueEntryCompleted(ctx context.Context, id string, response *model.ProviderResponse, at time.Time) error
	// MarkQueueEntryFailed flips the entry to failed and files a failed record in one transaction.
	MarkQueueEntryFailed(ctx context.Context, entry *model.QueueEntry, errMsg string, at time.Time) (*model.FailedRecord, error)
	ListQueueEntries(ctx context.Context, filter model.RecordFilter) ([]model.QueueEntry, error)
	CountQueueEntries(ctx context.Context, filter model.RecordFilter) (int64, error)
	QueueStatusCounts(ctx context.Context, recordType model.RecordType) (model.StatusCounts, error)
}

// failed defines methods for records awaiting a manual retry.
type failed interface {
	GetFailedRecord(ctx context.Context, id string) (*model.FailedRecord, error)
	ListFailedRecords(ctx context.Context, recordType model.RecordType, limit, offset int) ([]model.FailedRecord, int64, error)
	MarkFailedRecordRetrying(ctx context.Context, id string, at time.Time) error
	UpdateFailedRecordAfterRetry(ctx context.Context, id string, errMsg string, at time.Time) error
	// CompleteRetry records the successful resend and removes the failed record and its parent entry.
	CompleteRetry(ctx context.Context, record *model.FailedRecord, response *model.ProviderResponse, at time.Time) (*model.QueueEntry, error)
}

// stats defines methods for housekeeping.
type stats interface {
	SystemStats(ctx context.Context) (model.SystemStats, error)
	DailyCounts(ctx context.Context, day time.Time) (map[model.RecordType]model.StatusCounts, error)
	DeleteAll(ctx context.Context) (queueEntries int64, failedRecords int64, err error)
}
