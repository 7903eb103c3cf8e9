package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	model2 "github.com/blnkfinance/notifier/api/model"
	"github.com/blnkfinance/notifier/internal/normalize"
)

func (a Api) DailySummary(c *gin.Context) {
	var date time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := normalize.ParseDate(raw, time.Now())
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		date = parsed
	}

	summary, err := a.notifier.DailySummary(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", summary)
}

func (a Api) ResetSystem(c *gin.Context) {
	var req model2.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Reset confirmation required")
		return
	}
	if err := req.ValidateResetRequest(); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := a.notifier.Reset(c.Request.Context(), req.ConfirmReset, req.ResetType)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "System data reset successfully", result)
}

func (a Api) SystemStats(c *gin.Context) {
	stats, err := a.notifier.SystemStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}
