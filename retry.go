package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/internal/compose"
	redlock "github.com/blnkfinance/notifier/internal/lock"
	"github.com/blnkfinance/notifier/internal/sms"
	"github.com/blnkfinance/notifier/model"
)

// retryLockMargin covers the store writes around a dispatch.
const retryLockMargin = 20 * time.Second

var ErrRetryQueued = apierror.NewAPIError(apierror.ErrConflict, "A retry for this record is already queued", nil)

// RetryResult reports a single resend. Entry is set on success, Record on failure.
type RetryResult struct {
	Success bool                `json:"success"`
	Entry   *model.QueueEntry   `json:"entry,omitempty"`
	Record  *model.FailedRecord `json:"failedRecord,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func retryLockKey(failedID string) string {
	return "retry-lock:" + failedID
}

// retryLockTTL holds the lock for a full provider timeout plus the store writes.
func (n *Notifier) retryLockTTL() time.Duration {
	timeout := time.Duration(n.config.SMS.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = config.DefaultSMSTimeoutSec * time.Second
	}
	return timeout + retryLockMargin
}

// RetryFailed resends one failed record. A success replaces the failed
// entry with a new completed one; a failure updates the record in place.
func (n *Notifier) RetryFailed(ctx context.Context, failedID string) (*RetryResult, error) {
	ctx, span := tracer.Start(ctx, "Retrying failed record")
	defer span.End()
	span.SetAttributes(attribute.String("failed.id", failedID))

	lock, err := redlock.Acquire(ctx, n.redis, retryLockKey(failedID), n.retryLockTTL())
	if err != nil {
		if errors.Is(err, redlock.ErrLockHeld) {
			return nil, apierror.NewAPIError(apierror.ErrConflict, "A retry for this record is already in progress", nil)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to acquire retry lock", err)
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			logrus.WithError(err).WithField("failed_id", failedID).Warn("failed to release retry lock")
		}
	}()

	// Once the lock is held the resend and its outcome write run to completion.
	ctx = context.WithoutCancel(ctx)

	record, err := n.datasource.GetFailedRecord(ctx, failedID)
	if err != nil {
		return nil, err
	}

	retryAt := n.now()
	if err := n.datasource.MarkFailedRecordRetrying(ctx, failedID, retryAt); err != nil {
		return nil, err
	}

	result := n.resend(ctx, record, retryAt)
	logger := logrus.WithFields(logrus.Fields{"failed_id": failedID, "phone": record.Phone, "retry_count": record.RetryCount})

	if result.Success {
		entry, err := n.datasource.CompleteRetry(ctx, record, result.Response, n.now())
		if err != nil {
			return nil, err
		}
		logger.WithField("entry_id", entry.ID).Info("retry succeeded")
		return &RetryResult{Success: true, Entry: entry}, nil
	}

	failedAt := n.now()
	if err := n.datasource.UpdateFailedRecordAfterRetry(ctx, failedID, result.Error, failedAt); err != nil {
		return nil, err
	}
	record.Status = model.FailedStatusFailed
	record.Error = result.Error
	record.RetryCount++
	record.RetryAt = &retryAt
	record.FinalFailureAt = failedAt

	logger.WithField("error", result.Error).Warn("retry failed")
	n.publish(ctx, EventSMSFailed, record)
	return &RetryResult{Success: false, Record: record, Error: result.Error}, nil
}

// resend composes from the stored payload, so a salary retry keeps the
// month it was originally sent for.
func (n *Notifier) resend(ctx context.Context, record *model.FailedRecord, at time.Time) sms.Result {
	templateID, variables, err := compose.Compose(record.Name, record.Data, n.templates, at)
	if err != nil {
		return sms.Result{Error: err.Error()}
	}
	return n.dispatcher.Send(ctx, record.Phone, templateID, variables)
}

// EnqueueRetry checks that failedID exists and hands the resend to the workers.
func (n *Notifier) EnqueueRetry(ctx context.Context, failedID string) (string, error) {
	if _, err := n.datasource.GetFailedRecord(ctx, failedID); err != nil {
		return "", err
	}
	info, err := n.queue.EnqueueRetry(ctx, failedID)
	if err != nil {
		if errors.Is(err, ErrRetryQueued) {
			return "", err
		}
		return "", apierror.NewAPIError(apierror.ErrInternalServer, "Failed to enqueue retry", err)
	}
	return info.ID, nil
}

// ProcessRetryTask is the asynq handler for TaskRetryFailed. A dispatch that
// fails again is recorded and not retried by asynq; only infrastructure
// errors are returned.
func (n *Notifier) ProcessRetryTask(ctx context.Context, task *asynq.Task) error {
	var payload RetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return errors.Join(err, asynq.SkipRetry)
	}

	_, err := n.RetryFailed(ctx, payload.FailedID)
	if code, ok := apierror.CodeOf(err); ok && code == apierror.ErrNotFound {
		logrus.WithField("failed_id", payload.FailedID).Info("failed record no longer exists, dropping retry")
		return nil
	}
	return err
}
