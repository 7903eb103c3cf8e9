package excel

import (
	"bytes"
	"testing"

	"github.com/blnkfinance/notifier/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildSheet(t *testing.T, cells map[string]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for cell, value := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", cell, value))
	}
	// a second sheet must never be read
	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "F2", "Hidden"))

	buf := new(bytes.Buffer)
	require.NoError(t, f.Write(buf))
	return buf
}

func TestExtractRowsAttendance(t *testing.T) {
	buf := buildSheet(t, map[string]interface{}{
		"F1": "Name", "B1": "Phone", "D1": "Emp", "I1": "In", "J1": "Out",
		"F2": "Asha", "B2": 9876543210, "D2": "E1", "I2": 0.375, "J2": 0.75,
		// row 3 is fully blank
		"F4": "Ravi", "B4": "12345",
	})

	wb, err := Open(buf)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, "Sheet1", wb.SheetName())

	rows, err := wb.ExtractRows(DefaultMapping(model.RecordTypeAttendance))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Number)
	assert.Equal(t, "Asha", rows[0].Get(model.FieldName))
	assert.Equal(t, "9876543210", rows[0].Get(model.FieldPhone))
	assert.Equal(t, "0.375", rows[0].Get(model.FieldInTime))
	_, hasDuration := rows[0].Values[model.FieldWorkDuration]
	assert.False(t, hasDuration)

	assert.Equal(t, 4, rows[1].Number)
	assert.Equal(t, "Ravi", rows[1].Get(model.FieldName))
	assert.Equal(t, "", rows[1].Get(model.FieldEmployeeID))
}

func TestExtractRowsHeaderOnly(t *testing.T) {
	buf := buildSheet(t, map[string]interface{}{"A1": "Name", "B1": "Phone"})

	wb, err := Open(buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.ExtractRows(DefaultMapping(model.RecordTypeSalary))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestExtractRowsRejectsBadMapping(t *testing.T) {
	buf := buildSheet(t, map[string]interface{}{"A1": "Name", "A2": "Asha"})

	wb, err := Open(buf)
	require.NoError(t, err)
	defer wb.Close()

	_, err = wb.ExtractRows(model.ColumnMapping{model.FieldName: "1A"})
	assert.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open(bytes.NewBufferString("name,phone\nAsha,9876543210\n"))
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	mapping := Resolve(model.RecordTypeAttendance, map[string]string{
		model.FieldName:  " e ",
		model.FieldPhone: "",
		"unknown":        "Z",
	})
	assert.Equal(t, "E", mapping[model.FieldName])
	assert.Equal(t, "B", mapping[model.FieldPhone])
	_, ok := mapping["unknown"]
	assert.False(t, ok)

	salary := Resolve(model.RecordTypeSalary, map[string]string{model.FieldAmount: "H"})
	assert.Equal(t, "H", salary[model.FieldAmount])
	_, ok = Resolve(model.RecordTypeSalary, nil)[model.FieldAmount]
	assert.False(t, ok)

	// defaults are copied, not shared
	DefaultMapping(model.RecordTypeSalary)[model.FieldName] = "Z"
	assert.Equal(t, "A", DefaultMapping(model.RecordTypeSalary)[model.FieldName])
}

func TestValidateColumn(t *testing.T) {
	assert.NoError(t, ValidateColumn("A"))
	assert.NoError(t, ValidateColumn("AB"))
	assert.Error(t, ValidateColumn(""))
	assert.Error(t, ValidateColumn("ABC"))
	assert.Error(t, ValidateColumn("a"))
	assert.Error(t, ValidateColumn("1"))
}

func TestWriteTable(t *testing.T) {
	buf := new(bytes.Buffer)
	err := WriteTable(buf, "Attendance", []string{"Name", "Phone"}, [][]string{{"Asha", "9876543210"}})
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Name", "Phone"}, {"Asha", "9876543210"}}, rows)
}

func TestWriteSheets(t *testing.T) {
	buf := new(bytes.Buffer)
	err := WriteSheets(buf,
		Sheet{Name: "attendance", Header: []string{"Name"}, Rows: [][]string{{"Asha"}}},
		Sheet{Name: "salary", Header: []string{"Name"}, Rows: [][]string{{"Ravi"}, {"Meena"}}},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"attendance", "salary"}, f.GetSheetList())
	rows, err := f.GetRows("salary")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	assert.Error(t, WriteSheets(new(bytes.Buffer)))
}
