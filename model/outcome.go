package model

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// AttendanceData is the attendance payload carried by queue and failed records.
type AttendanceData struct {
	EmployeeID   string `json:"employeeId"`
	InTime       string `json:"inTime"`
	OutTime      string `json:"outTime"`
	WorkDuration string `json:"workDuration"`
	SelectedDate string `json:"selectedDate"`
}

// SalaryData is the salary payload carried by queue and failed records.
type SalaryData struct {
	EmployeeID    string          `json:"employeeId"`
	GrossSalary   decimal.Decimal `json:"grossSalary"`
	PF            decimal.Decimal `json:"pf"`
	ESI           decimal.Decimal `json:"esi"`
	NetPay        decimal.Decimal `json:"netPay"`
	Days          int             `json:"days"`
	SelectedMonth int             `json:"selectedMonth"`
}

// OutcomeData is a tagged union keyed by Type. Exactly one of Attendance or
// Salary is set and it always matches Type.
type OutcomeData struct {
	Type       RecordType
	Attendance *AttendanceData
	Salary     *SalaryData
}

func NewAttendanceOutcome(a AttendanceData) OutcomeData {
	return OutcomeData{Type: RecordTypeAttendance, Attendance: &a}
}

func NewSalaryOutcome(s SalaryData) OutcomeData {
	return OutcomeData{Type: RecordTypeSalary, Salary: &s}
}

func (o OutcomeData) Validate() error {
	switch o.Type {
	case RecordTypeAttendance:
		if o.Attendance == nil || o.Salary != nil {
			return fmt.Errorf("attendance outcome must carry only attendance data")
		}
	case RecordTypeSalary:
		if o.Salary == nil || o.Attendance != nil {
			return fmt.Errorf("salary outcome must carry only salary data")
		}
	default:
		return fmt.Errorf("unknown record type %q", o.Type)
	}
	return nil
}

// EmployeeID is shared by both variants.
func (o OutcomeData) EmployeeID() string {
	switch o.Type {
	case RecordTypeAttendance:
		if o.Attendance != nil {
			return o.Attendance.EmployeeID
		}
	case RecordTypeSalary:
		if o.Salary != nil {
			return o.Salary.EmployeeID
		}
	}
	return ""
}

// MarshalJSON writes only the active variant; the discriminant lives on the owning record.
func (o OutcomeData) MarshalJSON() ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if o.Type == RecordTypeAttendance {
		return json.Marshal(o.Attendance)
	}
	return json.Marshal(o.Salary)
}

// DecodeOutcomeData rebuilds the union from a stored payload and its record type.
func DecodeOutcomeData(recordType RecordType, raw []byte) (OutcomeData, error) {
	switch recordType {
	case RecordTypeAttendance:
		var a AttendanceData
		if err := json.Unmarshal(raw, &a); err != nil {
			return OutcomeData{}, err
		}
		return NewAttendanceOutcome(a), nil
	case RecordTypeSalary:
		var s SalaryData
		if err := json.Unmarshal(raw, &s); err != nil {
			return OutcomeData{}, err
		}
		return NewSalaryOutcome(s), nil
	default:
		return OutcomeData{}, fmt.Errorf("unknown record type %q", recordType)
	}
}
