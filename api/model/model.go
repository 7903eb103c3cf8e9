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
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/blnkfinance/notifier/internal/excel"
	"github.com/blnkfinance/notifier/internal/settings"
	"github.com/blnkfinance/notifier/model"
)

// UploadAttendance carries the form fields sent alongside an attendance sheet.
type UploadAttendance struct {
	SelectedDate string `form:"selectedDate"`
	Mode         string `form:"mode"`
}

type UploadSalary struct {
	SelectedMonth int    `form:"selectedMonth"`
	Mode          string `form:"mode"`
}

// RecordQuery holds the query string of the listing and export endpoints.
type RecordQuery struct {
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
	Type   string `form:"type"`
	Status string `form:"status"`
	Date   string `form:"date"`
	Month  int    `form:"month"`
	Format string `form:"format"`
}

type ResetRequest struct {
	ConfirmReset bool   `json:"confirmReset"`
	ResetType    string `json:"resetType"`
}

// UpdateSettings is keyed by the column names GET /settings returns, e.g.
// {"attendance": {"nameColumn": "F"}}.
type UpdateSettings struct {
	Attendance map[string]string `json:"attendance"`
	Salary     map[string]string `json:"salary"`
}

var validModes = []interface{}{"", string(model.ModeStrict), string(model.ModeLegacy)}

func columnLetters(value interface{}) error {
	view, _ := value.(map[string]string)
	for key, column := range view {
		column = strings.TrimSpace(column)
		if column == "" {
			continue
		}
		if err := excel.ValidateColumn(strings.ToUpper(column)); err != nil {
			return errors.New(key + ": " + err.Error())
		}
	}
	return nil
}

func (u *UploadAttendance) ValidateUploadAttendance() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Mode, validation.In(validModes...).Error("mode must be strict or legacy")),
	)
}

func (u *UploadSalary) ValidateUploadSalary() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.SelectedMonth, validation.Min(1), validation.Max(12)),
		validation.Field(&u.Mode, validation.In(validModes...).Error("mode must be strict or legacy")),
	)
}

func (q *RecordQuery) ValidateRecordQuery() error {
	return validation.ValidateStruct(q,
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0)),
		validation.Field(&q.Status, validation.In(string(model.StatusPending), string(model.StatusCompleted), string(model.StatusFailed))),
		validation.Field(&q.Type, validation.In(string(model.RecordTypeAttendance), string(model.RecordTypeSalary))),
		validation.Field(&q.Month, validation.Min(1), validation.Max(12)),
	)
}

func (r *ResetRequest) ValidateResetRequest() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ResetType, validation.In("sms_data", "all")),
	)
}

func (u *UpdateSettings) ValidateUpdateSettings() error {
	if len(u.Attendance) == 0 && len(u.Salary) == 0 {
		return errors.New("At least one settings category must be provided")
	}
	return validation.ValidateStruct(u,
		validation.Field(&u.Attendance, validation.By(columnLetters)),
		validation.Field(&u.Salary, validation.By(columnLetters)),
	)
}

// ToValues converts the update into settings keys. Unknown column names are dropped.
func (u *UpdateSettings) ToValues() map[string]string {
	values := settings.FromView(model.RecordTypeAttendance, u.Attendance)
	for key, value := range settings.FromView(model.RecordTypeSalary, u.Salary) {
		values[key] = value
	}
	return values
}
