package excel

import (
	"strings"

	"github.com/blnkfinance/notifier/model"
)

// Default column letters per record type. An administrator may override any
// of them at runtime through the settings store.
var (
	defaultAttendance = model.ColumnMapping{
		model.FieldName:         "F",
		model.FieldPhone:        "B",
		model.FieldEmployeeID:   "D",
		model.FieldInTime:       "I",
		model.FieldOutTime:      "J",
		model.FieldWorkDuration: "M",
	}

	defaultSalary = model.ColumnMapping{
		model.FieldName:        "A",
		model.FieldPhone:       "B",
		model.FieldEmployeeID:  "C",
		model.FieldGrossSalary: "D",
		model.FieldPF:          "E",
		model.FieldESI:         "F",
		model.FieldDays:        "G",
	}

	// optionalFields are extracted only when configured.
	optionalFields = map[model.RecordType][]string{
		model.RecordTypeSalary: {model.FieldAmount},
	}
)

// DefaultMapping returns a copy of the built-in mapping for recordType.
func DefaultMapping(recordType model.RecordType) model.ColumnMapping {
	var src model.ColumnMapping
	switch recordType {
	case model.RecordTypeAttendance:
		src = defaultAttendance
	case model.RecordTypeSalary:
		src = defaultSalary
	}
	out := make(model.ColumnMapping, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Fields lists the logical fields a record type can map, optional ones last.
func Fields(recordType model.RecordType) []string {
	var fields []string
	switch recordType {
	case model.RecordTypeAttendance:
		fields = []string{model.FieldName, model.FieldPhone, model.FieldEmployeeID, model.FieldInTime, model.FieldOutTime, model.FieldWorkDuration}
	case model.RecordTypeSalary:
		fields = []string{model.FieldName, model.FieldPhone, model.FieldEmployeeID, model.FieldGrossSalary, model.FieldPF, model.FieldESI, model.FieldDays}
	}
	return append(fields, optionalFields[recordType]...)
}

// Resolve overlays configured column letters on the defaults for recordType.
// Unknown fields and blank values are ignored.
func Resolve(recordType model.RecordType, configured map[string]string) model.ColumnMapping {
	mapping := DefaultMapping(recordType)
	for _, field := range Fields(recordType) {
		column := strings.ToUpper(strings.TrimSpace(configured[field]))
		if column == "" {
			continue
		}
		mapping[field] = column
	}
	return mapping
}
