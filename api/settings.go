package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	model2 "github.com/blnkfinance/notifier/api/model"
	"github.com/blnkfinance/notifier/internal/settings"
	"github.com/blnkfinance/notifier/model"
)

var fieldLabels = map[string]string{
	model.FieldName:         "Employee Name",
	model.FieldPhone:        "Phone Number",
	model.FieldEmployeeID:   "Employee ID",
	model.FieldInTime:       "In Time",
	model.FieldOutTime:      "Out Time",
	model.FieldWorkDuration: "Work Duration",
	model.FieldGrossSalary:  "Gross Salary",
	model.FieldPF:           "PF",
	model.FieldESI:          "ESI",
	model.FieldDays:         "Days",
	model.FieldAmount:       "Salary Amount",
}

func (a Api) settingsView(c *gin.Context) (gin.H, bool) {
	values, err := a.notifier.Settings().All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return gin.H{
		"attendance": settings.View(values, model.RecordTypeAttendance),
		"salary":     settings.View(values, model.RecordTypeSalary),
	}, true
}

func (a Api) GetSettings(c *gin.Context) {
	view, ok := a.settingsView(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, "", view)
}

func (a Api) UpdateSettings(c *gin.Context) {
	var update model2.UpdateSettings
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := update.ValidateUpdateSettings(); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := a.notifier.Settings().Set(c.Request.Context(), update.ToValues()); err != nil {
		respondError(c, err)
		return
	}

	view, ok := a.settingsView(c)
	if !ok {
		return
	}
	respond(c, http.StatusOK, "Settings updated successfully", view)
}

func (a Api) GetAttendanceSettings(c *gin.Context) {
	a.typeSettings(c, model.RecordTypeAttendance)
}

func (a Api) GetSalarySettings(c *gin.Context) {
	a.typeSettings(c, model.RecordTypeSalary)
}

// typeSettings returns the mapping of one record type plus an example of
// what each configured column should hold.
func (a Api) typeSettings(c *gin.Context, recordType model.RecordType) {
	values, err := a.notifier.Settings().All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	data := gin.H{}
	example := map[string]string{}
	for _, d := range settings.Definitions {
		if d.Type != recordType {
			continue
		}
		column := values[d.Key]
		data[d.Field+"Column"] = column
		if column != "" {
			example[column] = fieldLabels[d.Field]
		}
	}
	data["exampleMapping"] = example
	respond(c, http.StatusOK, "", data)
}
