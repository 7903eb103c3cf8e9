package compose

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/notifier/model"
)

var templates = Templates{Attendance: "197287", Salary: "195560"}

func TestAttendance(t *testing.T) {
	msg := Attendance("Asha", model.AttendanceData{
		EmployeeID:   "E1",
		InTime:       "09:00:00",
		OutTime:      "18:00:00",
		WorkDuration: "09:00",
		SelectedDate: "05-08-2025",
	})
	assert.Equal(t, "Asha–E1|05-08-2025|09:00:00–18:00:00 -कुल-09:00", msg)
	assert.Equal(t, []byte("Asha\xe2\x80\x93E1"), []byte(msg)[:len("Asha\xe2\x80\x93E1")])
}

func TestSalary(t *testing.T) {
	now := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	s := model.SalaryData{
		EmployeeID:    "E1",
		GrossSalary:   decimal.NewFromInt(30000),
		PF:            decimal.NewFromInt(1800),
		ESI:           decimal.NewFromInt(200),
		Days:          26,
		SelectedMonth: 8,
	}
	assert.Equal(t, "Asha-E1|अगस्त-26-दिन|30000-1800-200 = 28000.00", Salary("Asha", s, now))

	s.Days = 0
	s.SelectedMonth = 2
	assert.Equal(t, "Asha-E1|फ़रवरी-29-दिन|30000-1800-200 = 28000.00", Salary("Asha", s, now))
}

func TestCompose(t *testing.T) {
	now := time.Now()
	data := model.NewSalaryOutcome(model.SalaryData{EmployeeID: "E9", GrossSalary: decimal.NewFromFloat(100.5), SelectedMonth: 1, Days: 31})

	templateID, variables, err := Compose("Ravi", data, templates, now)
	require.NoError(t, err)
	assert.Equal(t, "195560", templateID)
	assert.Equal(t, "Ravi-E9|जनवरी-31-दिन|100.5-0-0 = 100.50", variables)

	templateID, _, err = Compose("Ravi", model.NewAttendanceOutcome(model.AttendanceData{EmployeeID: "E9"}), templates, now)
	require.NoError(t, err)
	assert.Equal(t, "197287", templateID)

	_, _, err = Compose("Ravi", model.OutcomeData{Type: "payroll"}, templates, now)
	assert.Error(t, err)

	_, _, err = Compose("Ravi", model.OutcomeData{Type: model.RecordTypeSalary}, templates, now)
	assert.Error(t, err)
}
