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

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/wacul/ptr"
)

const (
	DEFAULT_PORT = "5001"

	SMSModeDemo = "demo"
	SMSModeLive = "live"

	DefaultSMSBaseURL           = "https://www.fast2sms.com/dev/bulkV2"
	DefaultSMSTimeoutSec        = 10
	DefaultDispatchConcurrency  = 10
	DefaultAttendanceTemplateID = "197287"
	DefaultSalaryTemplateID     = "195560"
	DefaultMaxUploadBytes       = 10 << 20
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"NOTIFIER_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"NOTIFIER_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"NOTIFIER_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"NOTIFIER_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"NOTIFIER_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"NOTIFIER_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"NOTIFIER_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"NOTIFIER_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"NOTIFIER_REDIS_SKIP_TLS_VERIFY"`
}

// SMSConfig controls the outbound provider. Mode "demo" never touches the network.
type SMSConfig struct {
	Mode                 string `json:"mode" envconfig:"NOTIFIER_SMS_MODE"`
	BaseURL              string `json:"base_url" envconfig:"NOTIFIER_SMS_BASE_URL"`
	APIKey               string `json:"api_key" envconfig:"NOTIFIER_SMS_API_KEY"`
	SenderID             string `json:"sender_id" envconfig:"NOTIFIER_SMS_SENDER_ID"`
	Route                string `json:"route" envconfig:"NOTIFIER_SMS_ROUTE"`
	TimeoutSec           int    `json:"timeout_sec" envconfig:"NOTIFIER_SMS_TIMEOUT_SEC"`
	Concurrency          int    `json:"concurrency" envconfig:"NOTIFIER_SMS_CONCURRENCY"`
	AttendanceTemplateID string `json:"attendance_template_id" envconfig:"NOTIFIER_SMS_ATTENDANCE_TEMPLATE_ID"`
	SalaryTemplateID     string `json:"salary_template_id" envconfig:"NOTIFIER_SMS_SALARY_TEMPLATE_ID"`
}

type UploadConfig struct {
	MaxSizeBytes int64  `json:"max_size_bytes" envconfig:"NOTIFIER_UPLOAD_MAX_SIZE_BYTES"`
	TempDir      string `json:"temp_dir" envconfig:"NOTIFIER_UPLOAD_TEMP_DIR"`
}

type QueueConfig struct {
	RetryQueue     string `json:"retry_queue" envconfig:"NOTIFIER_QUEUE_RETRY"`
	WebhookQueue   string `json:"webhook_queue" envconfig:"NOTIFIER_QUEUE_WEBHOOK"`
	MaxRetryCount  int    `json:"max_retry_count" envconfig:"NOTIFIER_QUEUE_MAX_RETRY_COUNT"`
	WorkerCount    int    `json:"worker_count" envconfig:"NOTIFIER_QUEUE_WORKER_COUNT"`
	MonitoringPort string `json:"monitoring_port" envconfig:"NOTIFIER_QUEUE_MONITORING_PORT"`
}

type ArchiveConfig struct {
	S3Endpoint         string `json:"s3_endpoint" envconfig:"NOTIFIER_ARCHIVE_S3_ENDPOINT"`
	S3BucketName       string `json:"s3_bucket_name" envconfig:"NOTIFIER_ARCHIVE_S3_BUCKET"`
	S3Region           string `json:"s3_region" envconfig:"NOTIFIER_ARCHIVE_S3_REGION"`
	AwsAccessKeyId     string `json:"aws_access_key_id" envconfig:"NOTIFIER_ARCHIVE_AWS_ACCESS_KEY_ID"`
	AwsSecretAccessKey string `json:"aws_secret_access_key" envconfig:"NOTIFIER_ARCHIVE_AWS_SECRET_ACCESS_KEY"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"NOTIFIER_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"NOTIFIER_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"NOTIFIER_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url"`
}

type WebhookConfig struct {
	Url     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

type Notification struct {
	Slack   SlackWebhook  `json:"slack"`
	Webhook WebhookConfig `json:"webhook"`
}

type TelemetryConfig struct {
	Enabled        bool   `json:"enabled" envconfig:"NOTIFIER_TELEMETRY_ENABLED"`
	PosthogKey     string `json:"posthog_key" envconfig:"NOTIFIER_TELEMETRY_POSTHOG_KEY"`
	PosthogBaseURL string `json:"posthog_base_url" envconfig:"NOTIFIER_TELEMETRY_POSTHOG_URL"`

	// TracingEndpoint is an OTLP/HTTP collector URL. Tracing is off when empty.
	TracingEndpoint string `json:"tracing_endpoint" envconfig:"NOTIFIER_TELEMETRY_TRACING_ENDPOINT"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"NOTIFIER_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	SMS          SMSConfig        `json:"sms"`
	Upload       UploadConfig     `json:"upload"`
	Queue        QueueConfig      `json:"queue"`
	Archive      ArchiveConfig    `json:"archive"`
	Notification Notification     `json:"notification"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
	Telemetry    TelemetryConfig  `json:"telemetry"`
}

// IsDemo reports whether dispatches are simulated.
func (cnf *Configuration) IsDemo() bool {
	return cnf.SMS.Mode != SMSModeLive
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("notifier", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called notifier.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		cnf.ProjectName = "Notifier Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	if cnf.Redis.Dns == "" {
		log.Println("Error: Redis DNS is empty. It's a required field.")
		return errors.New("redis DNS is required")
	}

	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.SMS.Mode = strings.ToLower(strings.TrimSpace(cnf.SMS.Mode))

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if err := cnf.SMS.addDefaults(); err != nil {
		return err
	}

	if cnf.Upload.MaxSizeBytes <= 0 {
		cnf.Upload.MaxSizeBytes = DefaultMaxUploadBytes
	}
	if cnf.Upload.TempDir == "" {
		cnf.Upload.TempDir = "notifier_uploads"
	}

	if cnf.Queue.RetryQueue == "" {
		cnf.Queue.RetryQueue = "sms_retry"
	}
	if cnf.Queue.WebhookQueue == "" {
		cnf.Queue.WebhookQueue = "webhook_queue"
	}
	if cnf.Queue.MaxRetryCount <= 0 {
		cnf.Queue.MaxRetryCount = 3
	}
	if cnf.Queue.WorkerCount <= 0 {
		cnf.Queue.WorkerCount = 5
	}
	if cnf.Queue.MonitoringPort == "" {
		cnf.Queue.MonitoringPort = "5004"
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		cnf.RateLimit.Burst = ptr.Int(2 * int(*cnf.RateLimit.RequestsPerSecond))
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", *cnf.RateLimit.Burst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		cnf.RateLimit.RequestsPerSecond = ptr.Float64(float64(*cnf.RateLimit.Burst) / 2)
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", *cnf.RateLimit.RequestsPerSecond)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		cnf.RateLimit.CleanupIntervalSec = ptr.Int(10800)
	}

	if cnf.Telemetry.PosthogBaseURL == "" {
		cnf.Telemetry.PosthogBaseURL = "https://us.i.posthog.com"
	}

	return nil
}

func (s *SMSConfig) addDefaults() error {
	switch s.Mode {
	case "":
		s.Mode = SMSModeDemo
		log.Println("Warning: SMS mode not specified. Running in demo mode.")
	case SMSModeDemo, SMSModeLive:
	default:
		return errors.New("sms mode must be one of demo or live")
	}

	if s.Mode == SMSModeLive && s.APIKey == "" {
		return errors.New("sms api key is required in live mode")
	}

	if s.BaseURL == "" {
		s.BaseURL = DefaultSMSBaseURL
	}
	if s.SenderID == "" {
		s.SenderID = "SHUSON"
	}
	if s.Route == "" {
		s.Route = "dlt"
	}
	if s.TimeoutSec <= 0 {
		s.TimeoutSec = DefaultSMSTimeoutSec
	}
	if s.Concurrency <= 0 {
		s.Concurrency = DefaultDispatchConcurrency
	}
	if s.AttendanceTemplateID == "" {
		s.AttendanceTemplateID = DefaultAttendanceTemplateID
	}
	if s.SalaryTemplateID == "" {
		s.SalaryTemplateID = DefaultSalaryTemplateID
	}
	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
