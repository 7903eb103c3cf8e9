package model

import "time"

// ValidationMode selects how strictly rows are checked before dispatch.
type ValidationMode string

const (
	// ModeStrict requires every field of the detailed templates.
	ModeStrict ValidationMode = "strict"
	// ModeLegacy accepts the older simplified sheets.
	ModeLegacy ValidationMode = "legacy"
)

type BatchSummary struct {
	BatchID               string     `json:"batchId"`
	Type                  RecordType `json:"type"`
	TotalRows             int        `json:"totalRows"`
	ProcessedRows         int        `json:"processedRows"`
	QueuedForSMS          int        `json:"queuedForSMS"`
	Sent                  int        `json:"sent"`
	Failed                int        `json:"failed"`
	Errors                []string   `json:"errors"`
	BatchProcessingTimeMs int64      `json:"batchProcessingTimeMs"`
	AverageDispatchTimeMs int64      `json:"averageDispatchTimeMs"`
	IsDemoMode            bool       `json:"isDemoMode"`
}

// RecordFilter narrows queue listings and exports.
type RecordFilter struct {
	Type   RecordType
	Status QueueStatus
	// Date matches the attendance selectedDate (DD-MM-YYYY).
	Date string
	// Month matches the salary selectedMonth (1-12).
	Month  int
	Limit  int
	Offset int
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"totalPages"`
}

type StatusCounts struct {
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Total     int64 `json:"total"`
}

// Add folds n entries of status into the tally.
func (c *StatusCounts) Add(status QueueStatus, n int64) {
	switch status {
	case StatusPending:
		c.Pending += n
	case StatusCompleted:
		c.Completed += n
	case StatusFailed:
		c.Failed += n
	}
	c.Total += n
}

type TableStats struct {
	Count  int64      `json:"count"`
	Oldest *time.Time `json:"oldest"`
	Newest *time.Time `json:"newest"`
}

type SystemStats struct {
	QueueEntries  TableStats `json:"queueEntries"`
	FailedRecords TableStats `json:"failedRecords"`
	Total         int64      `json:"total"`
}

type DailySummary struct {
	Date   string                      `json:"date"`
	ByType map[RecordType]StatusCounts `json:"byType"`
	Totals StatusCounts                `json:"totals"`
}

type ResetResult struct {
	ResetType    string    `json:"resetType"`
	TotalDeleted int64     `json:"totalDeleted"`
	ClearedItems []string  `json:"clearedItems"`
	ResetAt      time.Time `json:"resetAt"`
	ArchiveKey   string    `json:"archiveKey,omitempty"`
}
