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

package apierror_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/blnkfinance/notifier/internal/apierror"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNewAPIError(t *testing.T) {
	apiErr := apierror.NewAPIError(apierror.ErrNotFound, "Failed record not found", errors.New("sql: no rows in result set"))

	assert.Equal(t, apierror.ErrNotFound, apiErr.Code)
	assert.Equal(t, "Failed record not found", apiErr.Message)
	assert.Equal(t, "NOT_FOUND: Failed record not found", apiErr.Error())
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", apierror.NewAPIError(apierror.ErrNotFound, "missing", nil), http.StatusNotFound},
		{"conflict", apierror.NewAPIError(apierror.ErrConflict, "retry in progress", nil), http.StatusConflict},
		{"bad request", apierror.NewAPIError(apierror.ErrBadRequest, "No valid data found in Excel file", nil), http.StatusBadRequest},
		{"invalid input", apierror.NewAPIError(apierror.ErrInvalidInput, "bad column", nil), http.StatusBadRequest},
		{"too large", apierror.NewAPIError(apierror.ErrTooLarge, "file too large", nil), http.StatusRequestEntityTooLarge},
		{"internal", apierror.NewAPIError(apierror.ErrInternalServer, "boom", nil), http.StatusInternalServerError},
		{"wrapped", pkgerrors.Wrap(apierror.NewAPIError(apierror.ErrNotFound, "missing", nil), "retry"), http.StatusNotFound},
		{"plain", errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, apierror.MapErrorToHTTPStatus(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	err := pkgerrors.Wrap(apierror.NewAPIError(apierror.ErrBadRequest, "No valid data found in Excel file", nil), "upload")
	assert.Equal(t, "No valid data found in Excel file", apierror.Message(err))
	assert.Equal(t, "plain", apierror.Message(errors.New("plain")))
}
