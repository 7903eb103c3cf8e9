// Package compose renders the positional variable strings substituted into the
// provider's DLT templates. Delimiters are part of the template contract and
// must be reproduced byte for byte.
package compose

import (
	"fmt"
	"time"

	"github.com/blnkfinance/notifier/internal/normalize"
	"github.com/blnkfinance/notifier/model"
)

const enDash = "–"

// Templates holds the provider template id for each record type.
type Templates struct {
	Attendance string
	Salary     string
}

// For returns the template id configured for recordType.
func (t Templates) For(recordType model.RecordType) (string, error) {
	switch recordType {
	case model.RecordTypeAttendance:
		return t.Attendance, nil
	case model.RecordTypeSalary:
		return t.Salary, nil
	}
	return "", fmt.Errorf("no template for record type %q", recordType)
}

// Attendance renders <name>–<employeeId>|<DD-MM-YYYY>|<in>–<out> -कुल-<duration>.
func Attendance(name string, a model.AttendanceData) string {
	return fmt.Sprintf("%s%s%s|%s|%s%s%s -%s-%s",
		name, enDash, a.EmployeeID,
		a.SelectedDate,
		a.InTime, enDash, a.OutTime,
		normalize.TotalToken, a.WorkDuration,
	)
}

// Salary renders <name>-<employeeId>|<month>-<days>-दिन|<gross>-<pf>-<esi> = <net>.
// now resolves a missing month or day count.
func Salary(name string, s model.SalaryData, now time.Time) string {
	return fmt.Sprintf("%s-%s|%s|%s",
		name, s.EmployeeID,
		normalize.MonthLabel(s.SelectedMonth, s.Days, now),
		normalize.NetPayLabel(s.GrossSalary, s.PF, s.ESI),
	)
}

// Message renders the variables for data.
func Message(name string, data model.OutcomeData, now time.Time) (string, error) {
	if err := data.Validate(); err != nil {
		return "", err
	}
	if data.Type == model.RecordTypeAttendance {
		return Attendance(name, *data.Attendance), nil
	}
	return Salary(name, *data.Salary, now), nil
}

// Compose returns the template id and rendered variables for data.
func Compose(name string, data model.OutcomeData, templates Templates, now time.Time) (string, string, error) {
	templateID, err := templates.For(data.Type)
	if err != nil {
		return "", "", err
	}
	variables, err := Message(name, data, now)
	if err != nil {
		return "", "", err
	}
	return templateID, variables, nil
}
