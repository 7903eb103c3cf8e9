package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/blnkfinance/notifier"
	"github.com/blnkfinance/notifier/internal/normalize"
	"github.com/blnkfinance/notifier/model"
)

type sendOptions struct {
	file  string
	date  string
	month int
	mode  string
}

// sendCommands processes a spreadsheet from disk without going through the API.
func sendCommands(app *notifierInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "send SMS notifications from a spreadsheet",
	}

	cmd.AddCommand(sendTypeCommand(app, model.RecordTypeAttendance))
	cmd.AddCommand(sendTypeCommand(app, model.RecordTypeSalary))
	return cmd
}

func sendTypeCommand(app *notifierInstance, recordType model.RecordType) *cobra.Command {
	opts := &sendOptions{}
	cmd := &cobra.Command{
		Use:   string(recordType),
		Short: fmt.Sprintf("send %s SMS from an Excel file", recordType),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, closeFile, err := opts.uploadRequest(recordType)
			if err != nil {
				return err
			}
			defer closeFile()

			summary, err := app.notifier.ProcessUpload(context.Background(), req)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "path to the .xlsx or .xls sheet")
	cmd.Flags().StringVar(&opts.mode, "mode", string(model.ModeStrict), "validation mode: strict or legacy")
	if recordType == model.RecordTypeAttendance {
		cmd.Flags().StringVar(&opts.date, "date", "", "attendance date (DD-MM-YYYY or YYYY-MM-DD), defaults to today")
	} else {
		cmd.Flags().IntVar(&opts.month, "month", 0, "salary month 1-12, defaults to the current month")
	}
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (o *sendOptions) uploadRequest(recordType model.RecordType) (notifier.UploadRequest, func(), error) {
	req := notifier.UploadRequest{
		Type:          recordType,
		Filename:      filepath.Base(o.file),
		Mode:          model.ValidationMode(o.mode),
		SelectedMonth: o.month,
	}

	if o.date != "" {
		date, err := normalize.ParseDate(o.date, time.Now())
		if err != nil {
			return req, nil, err
		}
		req.SelectedDate = date
	}

	f, err := os.Open(o.file)
	if err != nil {
		return req, nil, err
	}
	req.File = f
	return req, func() { _ = f.Close() }, nil
}
