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

// Package validate checks extracted spreadsheet rows and turns the good ones
// into typed records. A bad row never stops the others from being checked.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/blnkfinance/notifier/internal/normalize"
	"github.com/blnkfinance/notifier/model"
)

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// Record is a row that passed validation and is eligible for dispatch.
type Record struct {
	Row   int
	Name  string
	Phone string
	Data  model.OutcomeData
}

// Result partitions a batch into dispatchable records and row errors.
type Result struct {
	Processed []Record
	Errors    []string
}

// Phone reports whether phone is a 10 digit mobile number starting with 6-9.
func Phone(phone string) error {
	return validation.Validate(phone,
		validation.Required,
		validation.Match(phonePattern).Error("invalid phone number format"),
	)
}

func nonNegativeAmount(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, ok := normalize.ParseAmount(s)
	if !ok || d.IsNegative() {
		return errors.New("must be a non-negative number")
	}
	return nil
}

func positiveAmount(value interface{}) error {
	s, _ := value.(string)
	d, ok := normalize.ParseAmount(s)
	if !ok || !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func positiveInteger(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f != float64(int(f)) {
		return errors.New("must be a whole number greater than zero")
	}
	return nil
}

func rowError(row int, format string, args ...interface{}) string {
	return fmt.Sprintf("Row %d: %s", row, fmt.Sprintf(format, args...))
}

func missing(row model.ExtractedRow, fields ...string) []string {
	var out []string
	for _, f := range fields {
		if err := validation.Validate(row.Get(f), validation.Required); err != nil {
			out = append(out, f)
		}
	}
	return out
}

// checkIdentity validates the fields every record type shares and returns the row error, if any.
func checkIdentity(row model.ExtractedRow, required []string) string {
	if absent := missing(row, required...); len(absent) > 0 {
		return rowError(row.Number, "Missing required fields (%s)", strings.Join(absent, ", "))
	}
	if err := Phone(row.Get(model.FieldPhone)); err != nil {
		return rowError(row.Number, "Invalid phone number format")
	}
	return ""
}

// Attendance validates attendance rows. Strict mode requires punch times; legacy
// mode derives the work duration from whatever is present.
func Attendance(rows []model.ExtractedRow, mode model.ValidationMode, selectedDate time.Time) Result {
	result := Result{Errors: []string{}}
	date := normalize.FormatDate(selectedDate)

	for _, row := range rows {
		if msg := checkIdentity(row, []string{model.FieldName, model.FieldPhone, model.FieldEmployeeID}); msg != "" {
			result.Errors = append(result.Errors, msg)
			continue
		}

		inTime := normalize.TimeOfDay(row.Get(model.FieldInTime))
		outTime := normalize.TimeOfDay(row.Get(model.FieldOutTime))
		if mode != model.ModeLegacy && (inTime == "" || outTime == "") {
			result.Errors = append(result.Errors, rowError(row.Number, "Missing in-time or out-time"))
			continue
		}

		duration := normalize.Duration(row.Get(model.FieldWorkDuration))
		if duration == "" {
			duration = normalize.WorkDurationFromTimes(inTime, outTime)
		}

		result.Processed = append(result.Processed, Record{
			Row:   row.Number,
			Name:  row.Get(model.FieldName),
			Phone: row.Get(model.FieldPhone),
			Data: model.NewAttendanceOutcome(model.AttendanceData{
				EmployeeID:   row.Get(model.FieldEmployeeID),
				InTime:       inTime,
				OutTime:      outTime,
				WorkDuration: duration,
				SelectedDate: date,
			}),
		})
	}

	return result
}

// Salary validates salary rows for selectedMonth (1-12). Legacy sheets carry a
// single positive amount instead of the gross/pf/esi breakdown.
func Salary(rows []model.ExtractedRow, mode model.ValidationMode, selectedMonth int) Result {
	result := Result{Errors: []string{}}

	for _, row := range rows {
		var (
			data model.SalaryData
			msg  string
		)
		if mode == model.ModeLegacy {
			data, msg = legacySalary(row)
		} else {
			data, msg = strictSalary(row)
		}
		if msg != "" {
			result.Errors = append(result.Errors, msg)
			continue
		}

		data.SelectedMonth = selectedMonth
		result.Processed = append(result.Processed, Record{
			Row:   row.Number,
			Name:  row.Get(model.FieldName),
			Phone: row.Get(model.FieldPhone),
			Data:  model.NewSalaryOutcome(data),
		})
	}

	return result
}

func strictSalary(row model.ExtractedRow) (model.SalaryData, string) {
	if msg := checkIdentity(row, []string{model.FieldName, model.FieldPhone, model.FieldEmployeeID, model.FieldGrossSalary}); msg != "" {
		return model.SalaryData{}, msg
	}

	for _, field := range []string{model.FieldGrossSalary, model.FieldPF, model.FieldESI} {
		if err := validation.Validate(row.Get(field), validation.By(nonNegativeAmount)); err != nil {
			return model.SalaryData{}, rowError(row.Number, "Invalid %s format", field)
		}
	}
	if err := validation.Validate(row.Get(model.FieldDays), validation.By(positiveInteger)); err != nil {
		return model.SalaryData{}, rowError(row.Number, "Invalid %s format", model.FieldDays)
	}

	gross, _ := normalize.ParseAmount(row.Get(model.FieldGrossSalary))
	pf, _ := normalize.ParseAmount(row.Get(model.FieldPF))
	esi, _ := normalize.ParseAmount(row.Get(model.FieldESI))
	days, _ := strconv.ParseFloat(row.Get(model.FieldDays), 64)

	return model.SalaryData{
		EmployeeID:  row.Get(model.FieldEmployeeID),
		GrossSalary: gross,
		PF:          pf,
		ESI:         esi,
		NetPay:      normalize.NetPay(gross, pf, esi),
		Days:        int(days),
	}, ""
}

func legacySalary(row model.ExtractedRow) (model.SalaryData, string) {
	amountField := model.FieldAmount
	if row.Get(amountField) == "" {
		amountField = model.FieldGrossSalary
	}

	if absent := missing(row, model.FieldName, model.FieldPhone, amountField); len(absent) > 0 {
		return model.SalaryData{}, rowError(row.Number, "Missing required fields")
	}
	if err := Phone(row.Get(model.FieldPhone)); err != nil {
		return model.SalaryData{}, rowError(row.Number, "Invalid phone number format")
	}
	if err := validation.Validate(row.Get(amountField), validation.By(positiveAmount)); err != nil {
		return model.SalaryData{}, rowError(row.Number, "Invalid amount format")
	}

	amount, _ := normalize.ParseAmount(row.Get(amountField))
	return model.SalaryData{
		EmployeeID:  row.Get(model.FieldEmployeeID),
		GrossSalary: amount,
		PF:          decimal.Zero,
		ESI:         decimal.Zero,
		NetPay:      amount,
	}, ""
}
