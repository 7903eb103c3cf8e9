package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blnkfinance/notifier"
	model2 "github.com/blnkfinance/notifier/api/model"
	"github.com/blnkfinance/notifier/internal/normalize"
	"github.com/blnkfinance/notifier/model"
)

const uploadField = "excel"

func (a Api) UploadAttendance(c *gin.Context) {
	var form model2.UploadAttendance
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := form.ValidateUploadAttendance(); err != nil {
		badRequest(c, err.Error())
		return
	}

	req := notifier.UploadRequest{Type: model.RecordTypeAttendance, Mode: model.ValidationMode(form.Mode)}
	if form.SelectedDate != "" {
		date, err := normalize.ParseDate(form.SelectedDate, time.Now())
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		req.SelectedDate = date
	}
	a.upload(c, req)
}

func (a Api) UploadSalary(c *gin.Context) {
	var form model2.UploadSalary
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := form.ValidateUploadSalary(); err != nil {
		badRequest(c, err.Error())
		return
	}

	a.upload(c, notifier.UploadRequest{
		Type:          model.RecordTypeSalary,
		Mode:          model.ValidationMode(form.Mode),
		SelectedMonth: form.SelectedMonth,
	})
}

func (a Api) upload(c *gin.Context, req notifier.UploadRequest) {
	header, err := c.FormFile(uploadField)
	if err != nil {
		badRequest(c, "Please upload an Excel file")
		return
	}
	file, err := header.Open()
	if err != nil {
		badRequest(c, "Please upload an Excel file")
		return
	}
	defer file.Close()

	req.Filename = header.Filename
	req.File = file
	summary, err := a.notifier.ProcessUpload(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	label := "Attendance"
	if req.Type == model.RecordTypeSalary {
		label = "Salary"
	}
	message := label + " data processed successfully"
	if summary.IsDemoMode {
		message += " (DEMO MODE)"
	}
	respond(c, http.StatusOK, message, summary)
}

func (a Api) QueueStatus(c *gin.Context) {
	counts, err := a.notifier.QueueStatus(c.Request.Context(), model.RecordType(c.Query("type")))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", counts)
}

func (a Api) GetFailed(c *gin.Context) {
	query, ok := bindRecordQuery(c)
	if !ok {
		return
	}
	records, page, err := a.notifier.ListFailed(c.Request.Context(), model.RecordType(query.Type), query.Page, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"records": records, "pagination": page})
}

// RetryFailed resends one failed record inline, or hands it to the retry
// workers when async=true.
func (a Api) RetryFailed(c *gin.Context) {
	id := c.Param("id")
	async, _ := strconv.ParseBool(c.Query("async"))

	if async {
		taskID, err := a.notifier.EnqueueRetry(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusAccepted, "SMS retry queued", gin.H{"taskId": taskID})
		return
	}

	result, err := a.notifier.RetryFailed(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	message := "SMS retry succeeded"
	if !result.Success {
		message = "SMS retry failed"
	}
	c.JSON(http.StatusOK, gin.H{"success": result.Success, "message": message, "data": result})
}

func (a Api) AttendanceData(c *gin.Context) {
	a.listRecords(c, model.RecordTypeAttendance)
}

func (a Api) SalaryData(c *gin.Context) {
	a.listRecords(c, model.RecordTypeSalary)
}

func (a Api) ExportAttendance(c *gin.Context) {
	a.export(c, model.RecordTypeAttendance)
}

func (a Api) ExportSalary(c *gin.Context) {
	a.export(c, model.RecordTypeSalary)
}

func (a Api) listRecords(c *gin.Context, recordType model.RecordType) {
	query, ok := bindRecordQuery(c)
	if !ok {
		return
	}
	filter, err := recordFilter(recordType, query)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	rows, page, err := a.notifier.ListRecords(c.Request.Context(), filter, query.Page, query.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"records": rows, "pagination": page})
}

func (a Api) export(c *gin.Context, recordType model.RecordType) {
	query, ok := bindRecordQuery(c)
	if !ok {
		return
	}
	format, err := notifier.ParseExportFormat(query.Format)
	if err != nil {
		respondError(c, err)
		return
	}
	filter, err := recordFilter(recordType, query)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := a.notifier.Export(c.Request.Context(), filter, format, &buf); err != nil {
		respondError(c, err)
		return
	}

	filename := notifier.ExportFilename(recordType, format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func bindRecordQuery(c *gin.Context) (model2.RecordQuery, bool) {
	var query model2.RecordQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err.Error())
		return query, false
	}
	if err := query.ValidateRecordQuery(); err != nil {
		badRequest(c, err.Error())
		return query, false
	}
	return query, true
}

// recordFilter applies the filters that belong to recordType; attendance
// filters by day and salary by month.
func recordFilter(recordType model.RecordType, query model2.RecordQuery) (model.RecordFilter, error) {
	filter := model.RecordFilter{Type: recordType, Status: model.QueueStatus(query.Status)}
	switch recordType {
	case model.RecordTypeAttendance:
		if query.Date != "" {
			date, err := normalize.ParseDate(query.Date, time.Now())
			if err != nil {
				return filter, err
			}
			filter.Date = normalize.FormatDate(date)
		}
	case model.RecordTypeSalary:
		filter.Month = query.Month
	}
	return filter, nil
}
