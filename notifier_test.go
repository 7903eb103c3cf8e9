package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/database/mocks"
	"github.com/blnkfinance/notifier/internal/settings"
	"github.com/blnkfinance/notifier/internal/sms"
	"github.com/blnkfinance/notifier/model"
)

var fixedNow = time.Date(2025, time.August, 5, 10, 30, 0, 0, time.UTC)

// fakeDispatcher succeeds for every phone not listed in failures.
type fakeDispatcher struct {
	mu       sync.Mutex
	failures map[string]string
	sent     []sentMessage
}

type sentMessage struct {
	Phone      string
	TemplateID string
	Variables  string
}

func (f *fakeDispatcher) Send(_ context.Context, phone, templateID, variables string) sms.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{Phone: phone, TemplateID: templateID, Variables: variables})
	if msg, ok := f.failures[phone]; ok {
		return sms.Result{Error: msg, Duration: 40 * time.Millisecond}
	}
	return sms.Result{
		Success:  true,
		Response: &model.ProviderResponse{Return: true, RequestID: "req-" + phone},
		Duration: 20 * time.Millisecond,
	}
}

func (f *fakeDispatcher) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type testEnv struct {
	notifier   *Notifier
	db         *mocks.MockDataSource
	redis      *miniredis.Miniredis
	dispatcher *fakeDispatcher
	settings   *settings.MemoryProvider
	config     *config.Configuration
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)

	cnf := &config.Configuration{
		Redis: config.RedisConfig{Dns: mr.Addr()},
		SMS: config.SMSConfig{
			Mode:                 config.SMSModeDemo,
			Concurrency:          3,
			AttendanceTemplateID: config.DefaultAttendanceTemplateID,
			SalaryTemplateID:     config.DefaultSalaryTemplateID,
		},
		Upload: config.UploadConfig{TempDir: t.TempDir(), MaxSizeBytes: config.DefaultMaxUploadBytes},
		Queue:  config.QueueConfig{RetryQueue: "sms_retry", WebhookQueue: "webhook_queue", MaxRetryCount: 3},
	}
	config.MockConfig(cnf)

	env := &testEnv{
		db:         new(mocks.MockDataSource),
		redis:      mr,
		dispatcher: &fakeDispatcher{failures: map[string]string{}},
		settings:   settings.NewMemoryProvider(),
		config:     cnf,
	}

	base := []Option{
		WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
		WithDispatcher(env.dispatcher),
		WithSettings(env.settings),
		WithClock(func() time.Time { return fixedNow }),
	}
	n, err := NewNotifier(env.db, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })

	env.notifier = n
	return env
}

func attendanceData(employeeID string) model.OutcomeData {
	return model.NewAttendanceOutcome(model.AttendanceData{
		EmployeeID:   employeeID,
		InTime:       "09:00",
		OutTime:      "18:00",
		WorkDuration: "9:00",
		SelectedDate: "05-08-2025",
	})
}
