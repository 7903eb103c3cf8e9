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
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/blnkfinance/notifier"
	"github.com/blnkfinance/notifier/api/middleware"
	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/internal/apierror"
)

type Api struct {
	notifier *notifier.Notifier
	router   *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	sms := router.Group("/sms")
	sms.POST("/upload/attendance", a.UploadAttendance)
	sms.POST("/upload/salary", a.UploadSalary)

	sms.GET("/queue/status", a.QueueStatus)
	sms.GET("/failed", a.GetFailed)
	sms.POST("/retry/:id", a.RetryFailed)

	sms.GET("/attendance/data", a.AttendanceData)
	sms.GET("/attendance/export", a.ExportAttendance)
	sms.GET("/salary/data", a.SalaryData)
	sms.GET("/salary/export", a.ExportSalary)

	sms.GET("/logs/daily-summary", a.DailySummary)
	sms.POST("/system/reset", a.ResetSystem)
	sms.GET("/system/stats", a.SystemStats)

	router.GET("/settings", a.GetSettings)
	router.PUT("/settings", a.UpdateSettings)
	router.GET("/settings/attendance", a.GetAttendanceSettings)
	router.GET("/settings/salary", a.GetSalarySettings)

	return a.router
}

func NewAPI(n *notifier.Notifier) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(otelgin.Middleware(conf.ProjectName))
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "server running...")
	})

	return &Api{notifier: n, router: r}
}

// respond writes the {success, message, data} envelope every endpoint shares.
func respond(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, err error) {
	if _, ok := apierror.CodeOf(err); !ok {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}
	c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"success": false, "message": apierror.Message(err)})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
