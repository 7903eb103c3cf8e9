package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/blnkfinance/notifier/internal/apierror"
	"github.com/blnkfinance/notifier/internal/archive"
	"github.com/blnkfinance/notifier/internal/cache"
	"github.com/blnkfinance/notifier/internal/excel"
	"github.com/blnkfinance/notifier/internal/settings"
	"github.com/blnkfinance/notifier/model"
)

const (
	ResetSMSData = "sms_data"
	ResetAll     = "all"

	summaryGenerationKey = "notifier:summary-generation"
	summaryTTL           = 24 * time.Hour
)

// SystemStats reports row counts and the time span of each table.
func (n *Notifier) SystemStats(ctx context.Context) (model.SystemStats, error) {
	return n.datasource.SystemStats(ctx)
}

// summaryKey is scoped by a generation that Reset bumps, so cached
// summaries never outlive the records they counted.
func (n *Notifier) summaryKey(ctx context.Context, day string) (string, error) {
	gen, err := n.redis.Get(ctx, summaryGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("daily-summary:%d:%s", gen, day), nil
}

// DailySummary counts the day's dispatches per type and status. Days before
// today are final and served from the cache.
func (n *Notifier) DailySummary(ctx context.Context, date time.Time) (*model.DailySummary, error) {
	now := n.now()
	if date.IsZero() {
		date = now
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	label := day.Format("2006-01-02")
	past := day.Before(today)

	var key string
	if past {
		k, err := n.summaryKey(ctx, label)
		if err != nil {
			logrus.WithError(err).Warn("summary cache unavailable")
		}
		key = k
	}

	if key != "" {
		var cached model.DailySummary
		err := n.cache.Get(ctx, key, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logrus.WithError(err).WithField("key", key).Warn("failed to read cached summary")
		}
	}

	counts, err := n.datasource.DailyCounts(ctx, day)
	if err != nil {
		return nil, err
	}
	summary := &model.DailySummary{Date: label, ByType: counts}
	for _, c := range counts {
		summary.Totals.Add(model.StatusPending, c.Pending)
		summary.Totals.Add(model.StatusCompleted, c.Completed)
		summary.Totals.Add(model.StatusFailed, c.Failed)
	}

	if key != "" {
		if err := n.cache.Set(ctx, key, summary, summaryTTL); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("failed to cache summary")
		}
	}
	return summary, nil
}

// Reset deletes every queue entry and failed record; ResetAll also restores
// the default column settings. With an archiver configured, the records are
// exported to it first and the reset aborts if that upload fails.
func (n *Notifier) Reset(ctx context.Context, confirm bool, resetType string) (*model.ResetResult, error) {
	ctx, span := tracer.Start(ctx, "Resetting system data")
	defer span.End()

	if !confirm {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Reset confirmation required", nil)
	}
	if resetType == "" {
		resetType = ResetSMSData
	}
	if resetType != ResetSMSData && resetType != ResetAll {
		return nil, apierror.NewAPIError(apierror.ErrBadRequest, "Invalid reset type", nil)
	}

	result := &model.ResetResult{ResetType: resetType, ClearedItems: []string{}, ResetAt: n.now()}

	if n.archiver != nil {
		key, err := n.archiveRecords(ctx)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to archive records before reset", err)
		}
		result.ArchiveKey = key
	}

	queued, failed, err := n.datasource.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	result.TotalDeleted = queued + failed
	result.ClearedItems = append(result.ClearedItems,
		fmt.Sprintf("SMS Queue: %d records", queued),
		fmt.Sprintf("Failed SMS: %d records", failed),
	)

	if err := n.redis.Incr(ctx, summaryGenerationKey).Err(); err != nil {
		logrus.WithError(err).Warn("failed to invalidate cached summaries")
	}

	if resetType == ResetAll {
		if r, ok := n.settings.(settings.Resetter); ok {
			if err := r.Reset(ctx); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to reset settings", err)
			}
			result.ClearedItems = append(result.ClearedItems, "Settings: restored defaults")
		}
	}

	logrus.WithFields(logrus.Fields{
		"reset_type": resetType,
		"deleted":    result.TotalDeleted,
		"archive":    result.ArchiveKey,
	}).Warn("system reset completed")
	return result, nil
}

// archiveRecords uploads a workbook with one sheet per record type. It
// returns an empty key when there is nothing to archive.
func (n *Notifier) archiveRecords(ctx context.Context) (string, error) {
	entries, err := n.datasource.ListQueueEntries(ctx, model.RecordFilter{})
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	now := n.now()
	var sheets []excel.Sheet
	for _, recordType := range []model.RecordType{model.RecordTypeAttendance, model.RecordTypeSalary} {
		sheet, err := buildSheet(recordType, entries, now)
		if err != nil {
			return "", err
		}
		sheets = append(sheets, sheet)
	}

	buf := new(bytes.Buffer)
	if err := excel.WriteSheets(buf, sheets...); err != nil {
		return "", err
	}

	key := archive.ResetKey(now)
	if _, err := n.archiver.Store(ctx, key, buf); err != nil {
		return "", err
	}
	return key, nil
}
