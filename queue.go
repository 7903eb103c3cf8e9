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
	"context"
	"encoding/json"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/notifier/config"
	redis_db "github.com/blnkfinance/notifier/internal/redis-db"
)

// Task type names. The workers command registers a handler for each.
const (
	TaskRetryFailed = "sms:retry"
	TaskWebhook     = "webhook:deliver"
)

// Queue represents the background task queues for retries and webhooks.
type Queue struct {
	Client       *asynq.Client
	Inspector    *asynq.Inspector
	retryQueue   string
	webhookQueue string
	maxRetry     int
}

// RetryPayload identifies the failed record a retry task resends.
type RetryPayload struct {
	FailedID string `json:"failedId"`
}

// RedisClientOpt converts the configured redis address into asynq options.
func RedisClientOpt(conf *config.Configuration) (asynq.RedisClientOpt, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      redisOption.Addr,
		Username:  redisOption.Username,
		Password:  redisOption.Password,
		DB:        redisOption.DB,
		TLSConfig: redisOption.TLSConfig,
	}, nil
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) (*Queue, error) {
	queueOptions, err := RedisClientOpt(conf)
	if err != nil {
		return nil, err
	}
	return &Queue{
		Client:       asynq.NewClient(queueOptions),
		Inspector:    asynq.NewInspector(queueOptions),
		retryQueue:   conf.Queue.RetryQueue,
		webhookQueue: conf.Queue.WebhookQueue,
		maxRetry:     conf.Queue.MaxRetryCount,
	}, nil
}

func retryTaskID(failedID string) string {
	return "retry_" + failedID
}

// EnqueueRetry schedules a resend of failedID. A retry already waiting for
// the same record is reported as ErrRetryQueued.
func (q *Queue) EnqueueRetry(ctx context.Context, failedID string) (*asynq.TaskInfo, error) {
	payload, err := json.Marshal(RetryPayload{FailedID: failedID})
	if err != nil {
		return nil, err
	}
	task := asynq.NewTask(TaskRetryFailed, payload,
		asynq.TaskID(retryTaskID(failedID)),
		asynq.Queue(q.retryQueue),
		asynq.MaxRetry(q.maxRetry),
	)
	info, err := q.Client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil, ErrRetryQueued
	}
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"failed_id": failedID, "queue": info.Queue}).Info("retry enqueued")
	return info, nil
}

// EnqueueWebhook schedules delivery of hook to the configured endpoint.
func (q *Queue) EnqueueWebhook(ctx context.Context, hook NewWebhook) error {
	payload, err := json.Marshal(hook)
	if err != nil {
		return err
	}
	task := asynq.NewTask(TaskWebhook, payload, asynq.Queue(q.webhookQueue), asynq.MaxRetry(q.maxRetry))
	_, err = q.Client.EnqueueContext(ctx, task)
	return err
}

// Pending reports how many tasks wait in queue.
func (q *Queue) Pending(queue string) (int, error) {
	info, err := q.Inspector.GetQueueInfo(queue)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return info.Pending, nil
}

func (q *Queue) Close() error {
	return errors.Join(q.Client.Close(), q.Inspector.Close())
}
