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
	"embed"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/blnkfinance/notifier/config"
	"github.com/blnkfinance/notifier/database"
	"github.com/blnkfinance/notifier/internal/archive"
	"github.com/blnkfinance/notifier/internal/cache"
	"github.com/blnkfinance/notifier/internal/compose"
	redis_db "github.com/blnkfinance/notifier/internal/redis-db"
	"github.com/blnkfinance/notifier/internal/settings"
	"github.com/blnkfinance/notifier/internal/sms"
)

//go:embed sql/*.sql
var SQLFiles embed.FS

var tracer = otel.Tracer("notifier")

// Notifier turns uploaded spreadsheets into SMS dispatches and keeps the
// outcome of every attempt.
type Notifier struct {
	config     *config.Configuration
	datasource database.IDataSource
	dispatcher sms.Dispatcher
	settings   settings.Provider
	templates  compose.Templates
	redis      redis.UniversalClient
	cache      cache.Cache
	queue      *Queue
	archiver   archive.Archiver
	now        func() time.Time
}

// Option overrides one collaborator of a Notifier.
type Option func(*Notifier)

func WithDispatcher(d sms.Dispatcher) Option {
	return func(n *Notifier) { n.dispatcher = d }
}

func WithSettings(p settings.Provider) Option {
	return func(n *Notifier) { n.settings = p }
}

// WithRedis supplies the client used for settings, retry locks and the summary cache.
func WithRedis(client redis.UniversalClient) Option {
	return func(n *Notifier) { n.redis = client }
}

func WithQueue(q *Queue) Option {
	return func(n *Notifier) { n.queue = q }
}

func WithArchiver(a archive.Archiver) Option {
	return func(n *Notifier) { n.archiver = a }
}

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// NewNotifier wires a Notifier from the loaded configuration. Collaborators
// not given as options are built from config.
func NewNotifier(db database.IDataSource, opts ...Option) (*Notifier, error) {
	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	n := &Notifier{
		config:     cfg,
		datasource: db,
		templates: compose.Templates{
			Attendance: cfg.SMS.AttendanceTemplateID,
			Salary:     cfg.SMS.SalaryTemplateID,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.redis == nil {
		r, err := redis_db.Shared(cfg.Redis.Dns, cfg.Redis.SkipTLSVerify)
		if err != nil {
			return nil, err
		}
		n.redis = r.Client()
	}
	if n.dispatcher == nil {
		n.dispatcher = sms.New(cfg.SMS)
	}
	if n.settings == nil {
		n.settings = settings.NewRedisProvider(n.redis)
	}
	if n.cache == nil {
		n.cache = cache.NewCache(n.redis)
	}
	if n.queue == nil {
		q, err := NewQueue(cfg)
		if err != nil {
			return nil, err
		}
		n.queue = q
	}
	if n.archiver == nil && archive.Enabled(cfg.Archive) {
		a, err := archive.NewS3Archiver(cfg.Archive)
		if err != nil {
			return nil, err
		}
		n.archiver = a
	}

	return n, nil
}

// Settings exposes the column mapping store.
func (n *Notifier) Settings() settings.Provider {
	return n.settings
}

// IsDemo reports whether dispatches are simulated.
func (n *Notifier) IsDemo() bool {
	return n.config.IsDemo()
}

// Close releases the queue client.
func (n *Notifier) Close() error {
	if n.queue == nil {
		return nil
	}
	return n.queue.Close()
}
