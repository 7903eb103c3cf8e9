package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/blnkfinance/notifier/model"
)

const (
	demoSuccessMessage = "SMS sent successfully (DEMO)"
	demoFailureMessage = "Demo SMS failure (simulated for testing)"
	demoSuccessRate    = 0.95
	demoMinLatency     = 100 * time.Millisecond
	demoLatencySpread  = 500 * time.Millisecond
)

// DemoDispatcher simulates the provider: 100-600ms latency and a 95% success
// rate. It never makes a network call.
type DemoDispatcher struct {
	mu  sync.Mutex
	rng *rand.Rand

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewDemoDispatcher() *DemoDispatcher {
	return &DemoDispatcher{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: sleepContext,
		now:   time.Now,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *DemoDispatcher) draw() (time.Duration, float64, string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	latency := demoMinLatency + time.Duration(d.rng.Int63n(int64(demoLatencySpread)))
	return latency, d.rng.Float64(), strconv.FormatInt(d.rng.Int63(), 36)
}

func (d *DemoDispatcher) Send(ctx context.Context, phone, templateID, variables string) Result {
	started := time.Now()
	latency, roll, suffix := d.draw()

	if err := d.sleep(ctx, latency); err != nil {
		return failure(err.Error(), started)
	}

	if roll >= demoSuccessRate {
		return failure(demoFailureMessage, started)
	}

	if len(suffix) > 9 {
		suffix = suffix[:9]
	}
	message, _ := json.Marshal(demoSuccessMessage)
	return Result{
		Success: true,
		Response: &model.ProviderResponse{
			Return:    true,
			RequestID: fmt.Sprintf("demo_%d_%s", d.now().UnixMilli(), suffix),
			Message:   message,
		},
		Duration: time.Since(started),
	}
}
