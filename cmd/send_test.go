package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/notifier/model"
)

func TestUploadRequestAttendance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("sheet"), 0o600))

	opts := &sendOptions{file: path, date: "05-08-2025", mode: string(model.ModeLegacy)}
	req, closeFile, err := opts.uploadRequest(model.RecordTypeAttendance)
	require.NoError(t, err)
	defer closeFile()

	assert.Equal(t, "attendance.xlsx", req.Filename)
	assert.Equal(t, model.ModeLegacy, req.Mode)
	assert.Equal(t, time.August, req.SelectedDate.Month())
	assert.Equal(t, 5, req.SelectedDate.Day())
	assert.NotNil(t, req.File)
}

func TestUploadRequestSalaryMonth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salary.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("sheet"), 0o600))

	opts := &sendOptions{file: path, month: 6, mode: string(model.ModeStrict)}
	req, closeFile, err := opts.uploadRequest(model.RecordTypeSalary)
	require.NoError(t, err)
	defer closeFile()

	assert.Equal(t, 6, req.SelectedMonth)
	assert.True(t, req.SelectedDate.IsZero())
}

func TestUploadRequestErrors(t *testing.T) {
	_, _, err := (&sendOptions{file: "/does/not/exist.xlsx"}).uploadRequest(model.RecordTypeSalary)
	assert.Error(t, err)

	_, _, err = (&sendOptions{file: "x.xlsx", date: "not-a-date"}).uploadRequest(model.RecordTypeAttendance)
	assert.Error(t, err)
}
