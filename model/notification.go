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
package model

import (
	"encoding/json"
	"strings"
	"time"
)

type RecordType string

const (
	RecordTypeAttendance RecordType = "attendance"
	RecordTypeSalary     RecordType = "salary"
)

func (t RecordType) Valid() bool {
	return t == RecordTypeAttendance || t == RecordTypeSalary
}

type QueueStatus string

const (
	StatusPending   QueueStatus = "pending"
	StatusCompleted QueueStatus = "completed"
	StatusFailed    QueueStatus = "failed"
)

func (s QueueStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted || s == StatusFailed
}

type FailedStatus string

const (
	FailedStatusFailed   FailedStatus = "failed"
	FailedStatusRetrying FailedStatus = "retrying"
)

// Logical field names used by column mappings and extracted rows.
const (
	FieldName         = "name"
	FieldPhone        = "phone"
	FieldEmployeeID   = "employeeId"
	FieldInTime       = "inTime"
	FieldOutTime      = "outTime"
	FieldWorkDuration = "workDuration"
	FieldGrossSalary  = "grossSalary"
	FieldPF           = "pf"
	FieldESI          = "esi"
	FieldDays         = "days"
	FieldAmount       = "amount"
)

// ColumnMapping maps a logical field name to a spreadsheet column letter.
type ColumnMapping map[string]string

// ExtractedRow holds the populated cells of one spreadsheet row.
// Number is the 1-indexed spreadsheet row the values were read from.
type ExtractedRow struct {
	Number int
	Values map[string]string
}

func (r ExtractedRow) Get(field string) string {
	return r.Values[field]
}

// ProviderResponse is the synchronous body returned by the SMS provider.
// The provider sends message either as a string or as a list of strings.
type ProviderResponse struct {
	Return    bool            `json:"return"`
	RequestID string          `json:"request_id,omitempty"`
	Message   json.RawMessage `json:"message,omitempty"`
}

func (p ProviderResponse) MessageText() string {
	if len(p.Message) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.Message, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(p.Message, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return string(p.Message)
}

// QueueEntry is one dispatch attempt and its terminal outcome.
type QueueEntry struct {
	ID          string            `json:"id"`
	BatchID     string            `json:"batchId,omitempty"`
	Type        RecordType        `json:"type"`
	Name        string            `json:"name"`
	Phone       string            `json:"phone"`
	Data        OutcomeData       `json:"data"`
	Status      QueueStatus       `json:"status"`
	RetryCount  int               `json:"retryCount"`
	Error       *string           `json:"error"`
	Response    *ProviderResponse `json:"response"`
	CreatedAt   time.Time         `json:"createdAt"`
	CompletedAt *time.Time        `json:"completedAt"`
	FailedAt    *time.Time        `json:"failedAt"`
}

// FailedRecord is a terminally failed dispatch, eligible for manual retry.
// ParentQueueEntryID points at the failed QueueEntry it was created from.
type FailedRecord struct {
	ID                 string       `json:"id"`
	Type               RecordType   `json:"type"`
	Name               string       `json:"name"`
	Phone              string       `json:"phone"`
	Data               OutcomeData  `json:"data"`
	Error              string       `json:"error"`
	Status             FailedStatus `json:"status"`
	RetryCount         int          `json:"retryCount"`
	RetryAt            *time.Time   `json:"retryAt"`
	FinalFailureAt     time.Time    `json:"finalFailureAt"`
	ParentQueueEntryID string       `json:"parentQueueEntryId"`
	CreatedAt          time.Time    `json:"createdAt"`
}

// NewQueueEntry builds a pending entry for a validated record.
func NewQueueEntry(batchID, name, phone string, data OutcomeData) *QueueEntry {
	return &QueueEntry{
		ID:        GenerateUUIDWithSuffix("sms"),
		BatchID:   batchID,
		Type:      data.Type,
		Name:      name,
		Phone:     phone,
		Data:      data,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
}

// NewFailedRecord derives the failed-collection record for a queue entry that just failed.
func NewFailedRecord(entry *QueueEntry, errMsg string, at time.Time) *FailedRecord {
	return &FailedRecord{
		ID:                 GenerateUUIDWithSuffix("failed"),
		Type:               entry.Type,
		Name:               entry.Name,
		Phone:              entry.Phone,
		Data:               entry.Data,
		Error:              errMsg,
		Status:             FailedStatusFailed,
		FinalFailureAt:     at,
		ParentQueueEntryID: entry.ID,
		CreatedAt:          at,
	}
}
