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

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/internal/request"
)

const (
	EventBatchCompleted = "batch.completed"
	EventSMSFailed      = "sms.failed"
)

// NewWebhook represents the structure of a webhook notification.
type NewWebhook struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"data"`
}

// publish enqueues event when a webhook endpoint is configured. Failures
// are logged and never reach the caller.
func (n *Notifier) publish(ctx context.Context, event string, payload interface{}) {
	if n.queue == nil || n.config.Notification.Webhook.Url == "" {
		return
	}
	if err := n.queue.EnqueueWebhook(ctx, NewWebhook{Event: event, Payload: payload}); err != nil {
		logrus.WithError(err).WithField("event", event).Error("failed to enqueue webhook")
	}
}

// processHTTP posts data to the configured webhook endpoint.
func processHTTP(conf *config.Configuration, data json.RawMessage) error {
	req, err := http.NewRequest(http.MethodPost, conf.Notification.Webhook.Url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	for key, value := range conf.Notification.Webhook.Headers {
		req.Header.Set(key, value)
	}
	_, err = request.Call(req, nil)
	return err
}

// ProcessWebhook delivers one queued webhook. Returning an error lets asynq retry it.
func ProcessWebhook(_ context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	var hook struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(task.Payload(), &hook); err != nil {
		logrus.WithError(err).Error("error unmarshaling webhook payload")
		return err
	}

	if err := processHTTP(conf, task.Payload()); err != nil {
		logrus.WithError(err).WithField("event", hook.Event).Warn("webhook delivery failed")
		return err
	}
	logrus.WithField("event", hook.Event).Info("webhook delivered")
	return nil
}
