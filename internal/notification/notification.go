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

// Package notification alerts operators about errors that abort a batch.
package notification

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/internal/request"
)

type slackText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

func slackPayload(err error, at time.Time) slackMessage {
	return slackMessage{Blocks: []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: "Error From Notifier 🐞", Emoji: true}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: "*Error:*\n" + err.Error()}}},
		{Type: "section", Fields: []slackText{{Type: "mrkdwn", Text: "*Time:*\n" + at.Format(time.RFC822)}}},
	}}
}

// SlackNotification posts err to the Slack incoming webhook at webhookURL.
func SlackNotification(webhookURL string, err error) error {
	payload, e := request.ToJsonReq(slackPayload(err, time.Now()))
	if e != nil {
		return e
	}
	req, e := http.NewRequest(http.MethodPost, webhookURL, payload)
	if e != nil {
		return e
	}
	_, e = request.Call(req, nil)
	return e
}

// NotifyError logs systemError and, when Slack is configured, forwards it
// without blocking the caller.
func NotifyError(systemError error) {
	logrus.Error(systemError)

	conf, err := config.Fetch()
	if err != nil || conf.Notification.Slack.WebhookUrl == "" {
		return
	}

	go func(url string) {
		if err := SlackNotification(url, systemError); err != nil {
			logrus.WithError(err).Warn("failed to send slack notification")
		}
	}(conf.Notification.Slack.WebhookUrl)
}
