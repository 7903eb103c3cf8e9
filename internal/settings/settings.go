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

// Package settings holds the administrator-editable column mapping. Values
// live in a redis hash; keys that were never set fall back to the defaults.
package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/blnkfinance/notifier/internal/excel"
	"github.com/blnkfinance/notifier/model"
)

// ErrUnknownKey is returned when a caller tries to set a key that is not in Definitions.
var ErrUnknownKey = errors.New("unknown setting")

// Provider reads and writes settings.
type Provider interface {
	// Get returns the value for key, or its default when unset.
	Get(ctx context.Context, key string) (string, error)
	// Set applies a partial update. A blank value resets key to its default.
	Set(ctx context.Context, values map[string]string) error
	// All returns every known key with defaults filled in.
	All(ctx context.Context) (map[string]string, error)
}

// Resetter is implemented by providers that can drop every override at once.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Definition binds a settings key to a logical spreadsheet field.
type Definition struct {
	Key     string
	Type    model.RecordType
	Field   string
	Default string
}

var Definitions = buildDefinitions()

func buildDefinitions() []Definition {
	keys := map[model.RecordType]map[string]string{
		model.RecordTypeAttendance: {
			model.FieldName:         "ATTENDANCE_NAME_COLUMN",
			model.FieldPhone:        "ATTENDANCE_PHONE_COLUMN",
			model.FieldEmployeeID:   "ATTENDANCE_EMPLOYEE_ID_COLUMN",
			model.FieldInTime:       "ATTENDANCE_IN_TIME_COLUMN",
			model.FieldOutTime:      "ATTENDANCE_OUT_TIME_COLUMN",
			model.FieldWorkDuration: "ATTENDANCE_WORK_DURATION_COLUMN",
		},
		model.RecordTypeSalary: {
			model.FieldName:        "SALARY_NAME_COLUMN",
			model.FieldPhone:       "SALARY_PHONE_COLUMN",
			model.FieldEmployeeID:  "SALARY_EMPLOYEE_ID_COLUMN",
			model.FieldGrossSalary: "SALARY_GROSS_COLUMN",
			model.FieldPF:          "SALARY_PF_COLUMN",
			model.FieldESI:         "SALARY_ESI_COLUMN",
			model.FieldDays:        "SALARY_DAYS_COLUMN",
			model.FieldAmount:      "SALARY_AMOUNT_COLUMN",
		},
	}

	var defs []Definition
	for _, recordType := range []model.RecordType{model.RecordTypeAttendance, model.RecordTypeSalary} {
		defaults := excel.DefaultMapping(recordType)
		for _, field := range excel.Fields(recordType) {
			defs = append(defs, Definition{
				Key:     keys[recordType][field],
				Type:    recordType,
				Field:   field,
				Default: defaults[field],
			})
		}
	}
	return defs
}

func lookup(key string) (Definition, bool) {
	for _, d := range Definitions {
		if d.Key == key {
			return d, true
		}
	}
	return Definition{}, false
}

// Keys lists every known key in a stable order.
func Keys() []string {
	keys := make([]string, 0, len(Definitions))
	for _, d := range Definitions {
		keys = append(keys, d.Key)
	}
	sort.Strings(keys)
	return keys
}

// Defaults returns a fresh copy of the default value of every key.
func Defaults() map[string]string {
	out := make(map[string]string, len(Definitions))
	for _, d := range Definitions {
		out[d.Key] = d.Default
	}
	return out
}

// normalizeUpdate validates a partial update and canonicalizes column letters.
func normalizeUpdate(values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for key, value := range values {
		if _, ok := lookup(key); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		column := strings.ToUpper(strings.TrimSpace(value))
		if column != "" {
			if err := excel.ValidateColumn(column); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
		}
		out[key] = column
	}
	return out, nil
}

// Mapping resolves the column mapping for recordType from p.
func Mapping(ctx context.Context, p Provider, recordType model.RecordType) (model.ColumnMapping, error) {
	values, err := p.All(ctx)
	if err != nil {
		return nil, err
	}
	configured := make(map[string]string)
	for _, d := range Definitions {
		if d.Type == recordType {
			configured[d.Field] = values[d.Key]
		}
	}
	return excel.Resolve(recordType, configured), nil
}

// View renders the settings of one record type as {"nameColumn": "F", ...}.
func View(values map[string]string, recordType model.RecordType) map[string]string {
	out := make(map[string]string)
	for _, d := range Definitions {
		if d.Type == recordType {
			out[d.Field+"Column"] = values[d.Key]
		}
	}
	return out
}

// FromView translates a View-shaped update back to settings keys. Unknown
// entries are ignored.
func FromView(recordType model.RecordType, view map[string]string) map[string]string {
	out := make(map[string]string)
	for _, d := range Definitions {
		if d.Type != recordType {
			continue
		}
		if v, ok := view[d.Field+"Column"]; ok {
			out[d.Key] = v
		}
	}
	return out
}
