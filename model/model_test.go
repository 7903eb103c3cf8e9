package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUIDWithSuffix(t *testing.T) {
	module := "test_module"
	id := GenerateUUIDWithSuffix(module)
	assert.Contains(t, id, module+"_")
}

func TestGenerateBatchID(t *testing.T) {
	now := time.UnixMilli(1722850000000)
	id := GenerateBatchID(RecordTypeSalary, now)
	assert.True(t, strings.HasPrefix(id, "salary_1722850000000_"))
}

func TestPaginate(t *testing.T) {
	page, limit, offset := Paginate(0, 0, 100)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
	assert.Equal(t, 0, offset)

	page, limit, offset = Paginate(3, 500, 100)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 200, offset)

	p := NewPagination(2, 10, 21)
	assert.Equal(t, 3, p.Pages)
	assert.Equal(t, 0, NewPagination(1, 10, 0).Pages)
}

func TestOutcomeDataRoundTrip(t *testing.T) {
	salary := NewSalaryOutcome(SalaryData{
		EmployeeID:    "E7",
		GrossSalary:   decimal.NewFromInt(30000),
		PF:            decimal.NewFromInt(1800),
		ESI:           decimal.NewFromInt(200),
		NetPay:        decimal.NewFromInt(28000),
		Days:          31,
		SelectedMonth: 8,
	})

	raw, err := json.Marshal(salary)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "inTime")

	decoded, err := DecodeOutcomeData(RecordTypeSalary, raw)
	require.NoError(t, err)
	assert.Equal(t, RecordTypeSalary, decoded.Type)
	assert.Nil(t, decoded.Attendance)
	assert.True(t, decoded.Salary.NetPay.Equal(decimal.NewFromInt(28000)))
	assert.Equal(t, "E7", decoded.EmployeeID())
}

func TestOutcomeDataValidate(t *testing.T) {
	bad := OutcomeData{Type: RecordTypeAttendance, Salary: &SalaryData{}}
	assert.Error(t, bad.Validate())

	_, err := json.Marshal(bad)
	assert.Error(t, err)

	_, err = DecodeOutcomeData("payroll", []byte(`{}`))
	assert.Error(t, err)

	ok := NewAttendanceOutcome(AttendanceData{EmployeeID: "E1"})
	assert.NoError(t, ok.Validate())
}

func TestProviderResponseMessageText(t *testing.T) {
	single := ProviderResponse{Message: json.RawMessage(`"Invalid Authentication"`)}
	assert.Equal(t, "Invalid Authentication", single.MessageText())

	list := ProviderResponse{Message: json.RawMessage(`["SMS sent successfully."]`)}
	assert.Equal(t, "SMS sent successfully.", list.MessageText())

	assert.Equal(t, "", ProviderResponse{}.MessageText())
}

func TestNewFailedRecord(t *testing.T) {
	entry := NewQueueEntry("b1", "Asha", "9876543210", NewAttendanceOutcome(AttendanceData{EmployeeID: "E1"}))
	assert.Equal(t, StatusPending, entry.Status)

	at := time.Now()
	failed := NewFailedRecord(entry, "boom", at)
	assert.Equal(t, entry.ID, failed.ParentQueueEntryID)
	assert.Equal(t, 0, failed.RetryCount)
	assert.Equal(t, FailedStatusFailed, failed.Status)
	assert.Equal(t, at, failed.FinalFailureAt)
}
