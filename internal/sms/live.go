package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/model"
)

const defaultFailureMessage = "SMS sending failed"

// LiveDispatcher calls the provider's bulk GET endpoint.
type LiveDispatcher struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	senderID string
	route    string
}

func NewLiveDispatcher(cfg config.SMSConfig) *LiveDispatcher {
	timeout := cfg.TimeoutSec
	if timeout <= 0 {
		timeout = config.DefaultSMSTimeoutSec
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultSMSBaseURL
	}
	return &LiveDispatcher{
		client:   &http.Client{Timeout: time.Duration(timeout) * time.Second},
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
		route:    cfg.Route,
	}
}

func (d *LiveDispatcher) requestURL(phone, templateID, variables string) (string, error) {
	u, err := url.Parse(d.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid provider url: %w", err)
	}
	q := u.Query()
	q.Set("authorization", d.apiKey)
	q.Set("route", d.route)
	q.Set("sender_id", d.senderID)
	q.Set("message", templateID)
	q.Set("variables_values", variables)
	q.Set("flash", "0")
	q.Set("numbers", phone)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (d *LiveDispatcher) Send(ctx context.Context, phone, templateID, variables string) Result {
	started := time.Now()

	target, err := d.requestURL(phone, templateID, variables)
	if err != nil {
		return failure(err.Error(), started)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return failure(fmt.Sprintf("failed to create request: %s", err), started)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"phone":       phone,
			"template_id": templateID,
			"error":       err,
		}).Error("SMS provider request failed")
		return failure(err.Error(), started)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(fmt.Sprintf("failed to read response body: %s", err), started)
	}

	logrus.WithFields(logrus.Fields{
		"phone":       phone,
		"template_id": templateID,
		"status_code": resp.StatusCode,
		"response":    string(body),
	}).Debug("SMS provider response received")

	var providerResp model.ProviderResponse
	if !json.Valid(body) || json.Unmarshal(body, &providerResp) != nil {
		return failure(fmt.Sprintf("unexpected provider response (status %d)", resp.StatusCode), started)
	}

	if !providerResp.Return {
		msg := providerResp.MessageText()
		if msg == "" {
			msg = defaultFailureMessage
		}
		return Result{Response: &providerResp, Error: msg, Duration: time.Since(started)}
	}

	return Result{Success: true, Response: &providerResp, Duration: time.Since(started)}
}
