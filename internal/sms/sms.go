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

// Package sms sends one templated message per call, either through the DLT
// bulk provider or through a local simulator. Nothing here retries.
package sms

import (
	"context"
	"time"

	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/model"
)

// Dispatcher delivers a single message. Failures are reported in the Result,
// never as a Go error, so a caller can record them verbatim.
type Dispatcher interface {
	Send(ctx context.Context, phone, templateID, variables string) Result
}

// Result is the outcome of one dispatch.
type Result struct {
	Success  bool
	Response *model.ProviderResponse
	Error    string
	Duration time.Duration
}

func failure(msg string, started time.Time) Result {
	return Result{Error: msg, Duration: time.Since(started)}
}

// New returns the dispatcher selected by cfg.Mode.
func New(cfg config.SMSConfig) Dispatcher {
	if cfg.Mode == config.SMSModeLive {
		return NewLiveDispatcher(cfg)
	}
	return NewDemoDispatcher()
}
