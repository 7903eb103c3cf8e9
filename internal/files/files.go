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

// Package files stages uploaded spreadsheets on local disk for the duration
// of one batch.
package files

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeXLS  = "application/vnd.ms-excel"

	uploadDirName = "notifier_uploads"
)

var (
	ErrUnsupportedType = errors.New("only Excel files (.xlsx, .xls) are allowed")
	ErrTooLarge        = errors.New("file exceeds the maximum upload size")
)

func init() {
	// The builtin mime table does not know spreadsheet extensions.
	_ = mime.AddExtensionType(".xlsx", MimeXLSX)
	_ = mime.AddExtensionType(".xls", MimeXLS)
}

// TempFile is an upload staged on disk. Cleanup must be called on every path.
type TempFile struct {
	file *os.File
	Size int64
}

// DetectByExtension returns the MIME type implied by filename's extension.
func DetectByExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return ""
	}
	mimeType, _, _ := strings.Cut(mime.TypeByExtension(ext), ";")
	return mimeType
}

// CheckSpreadsheet accepts .xlsx and .xls names only.
func CheckSpreadsheet(filename string) error {
	switch DetectByExtension(filename) {
	case MimeXLSX, MimeXLS:
		return nil
	}
	return ErrUnsupportedType
}

// SaveUpload copies r into a new file under dir (the system temp dir when
// empty). More than maxBytes of input fails with ErrTooLarge.
func SaveUpload(dir, filename string, r io.Reader, maxBytes int64) (*TempFile, error) {
	if err := CheckSpreadsheet(filename); err != nil {
		return nil, err
	}

	f, err := createTempFile(dir, filename)
	if err != nil {
		return nil, err
	}
	tf := &TempFile{file: f}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		tf.Cleanup()
		return nil, fmt.Errorf("error copying upload data: %w", err)
	}
	if maxBytes > 0 && n > maxBytes {
		tf.Cleanup()
		return nil, ErrTooLarge
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		tf.Cleanup()
		return nil, fmt.Errorf("error seeking temporary file: %w", err)
	}

	tf.Size = n
	return tf, nil
}

func createTempFile(dir, originalFilename string) (*os.File, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), uploadDirName)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating temporary directory: %w", err)
	}

	prefix := fmt.Sprintf("%s_", strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename)))
	f, err := os.CreateTemp(dir, prefix+"*"+strings.ToLower(filepath.Ext(originalFilename)))
	if err != nil {
		return nil, fmt.Errorf("error creating temporary file: %w", err)
	}
	return f, nil
}

func (t *TempFile) Path() string {
	return t.file.Name()
}

func (t *TempFile) Reader() io.Reader {
	return t.file
}

// Cleanup closes and removes the file. It is safe to call more than once.
func (t *TempFile) Cleanup() {
	if t == nil || t.file == nil {
		return
	}
	name := t.file.Name()
	_ = t.file.Close()
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).WithField("file", name).Error("error removing temporary file")
	}
	t.file = nil
}
