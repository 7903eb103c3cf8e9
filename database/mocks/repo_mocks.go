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
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/blnkfinance/notifier/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

// Queue methods

func (m *MockDataSource) CreateQueueEntry(ctx context.Context, entry *model.QueueEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockDataSource) MarkQueueEntryCompleted(ctx context.Context, id string, response *model.ProviderResponse, at time.Time) error {
	args := m.Called(ctx, id, response, at)
	return args.Error(0)
}

func (m *MockDataSource) MarkQueueEntryFailed(ctx context.Context, entry *model.QueueEntry, errMsg string, at time.Time) (*model.FailedRecord, error) {
	args := m.Called(ctx, entry, errMsg, at)
	record, _ := args.Get(0).(*model.FailedRecord)
	return record, args.Error(1)
}

func (m *MockDataSource) ListQueueEntries(ctx context.Context, filter model.RecordFilter) ([]model.QueueEntry, error) {
	args := m.Called(ctx, filter)
	entries, _ := args.Get(0).([]model.QueueEntry)
	return entries, args.Error(1)
}

func (m *MockDataSource) CountQueueEntries(ctx context.Context, filter model.RecordFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDataSource) QueueStatusCounts(ctx context.Context, recordType model.RecordType) (model.StatusCounts, error) {
	args := m.Called(ctx, recordType)
	return args.Get(0).(model.StatusCounts), args.Error(1)
}

// Failed record methods

func (m *MockDataSource) GetFailedRecord(ctx context.Context, id string) (*model.FailedRecord, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*model.FailedRecord)
	return record, args.Error(1)
}

func (m *MockDataSource) ListFailedRecords(ctx context.Context, recordType model.RecordType, limit, offset int) ([]model.FailedRecord, int64, error) {
	args := m.Called(ctx, recordType, limit, offset)
	records, _ := args.Get(0).([]model.FailedRecord)
	return records, args.Get(1).(int64), args.Error(2)
}

func (m *MockDataSource) MarkFailedRecordRetrying(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockDataSource) UpdateFailedRecordAfterRetry(ctx context.Context, id string, errMsg string, at time.Time) error {
	args := m.Called(ctx, id, errMsg, at)
	return args.Error(0)
}

func (m *MockDataSource) CompleteRetry(ctx context.Context, record *model.FailedRecord, response *model.ProviderResponse, at time.Time) (*model.QueueEntry, error) {
	args := m.Called(ctx, record, response, at)
	entry, _ := args.Get(0).(*model.QueueEntry)
	return entry, args.Error(1)
}

// Stats methods

func (m *MockDataSource) SystemStats(ctx context.Context) (model.SystemStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.SystemStats), args.Error(1)
}

func (m *MockDataSource) DailyCounts(ctx context.Context, day time.Time) (map[model.RecordType]model.StatusCounts, error) {
	args := m.Called(ctx, day)
	counts, _ := args.Get(0).(map[model.RecordType]model.StatusCounts)
	return counts, args.Error(1)
}

func (m *MockDataSource) DeleteAll(ctx context.Context) (int64, int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}
