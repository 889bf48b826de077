// internal/application/application.go
package application

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrBlankName = errors.New("application name is required")

// Application is one registration attempt. It is a value type: fields are
// only reachable through accessors so a stored copy never changes.
type Application struct {
	id        string
	name      string
	createdAt time.Time
}

func (a Application) ID() string           { return a.id }
func (a Application) Name() string         { return a.name }
func (a Application) CreatedAt() time.Time { return a.createdAt }

// Age reports how old the application is at now. Negative for applications
// created in the future.
func (a Application) Age(now time.Time) time.Duration {
	return now.Sub(a.createdAt)
}

// AddMonths moves t by n calendar months, keeping the time of day. The day
// is clamped to the last day of the target month, so Mar 31 minus one month
// is Feb 28 (or 29), never early March.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, hour, minute, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

type factory struct {
	id          string
	createdAt   time.Time
	clock       func() time.Time
	monthOffset int
}

// Option customises New.
type Option func(*factory)

// WithID overrides the generated identifier.
func WithID(id string) Option {
	return func(f *factory) { f.id = id }
}

// WithCreatedAt pins the creation time instead of reading the clock.
func WithCreatedAt(t time.Time) Option {
	return func(f *factory) { f.createdAt = t }
}

// WithClock replaces time.Now as the source of the default creation time.
func WithClock(clock func() time.Time) Option {
	return func(f *factory) { f.clock = clock }
}

// WithMonthOffset shifts the creation time by n calendar months. Negative
// values move it into the past.
func WithMonthOffset(n int) Option {
	return func(f *factory) { f.monthOffset = n }
}

// New builds an application for name with a fresh id and the current time.
func New(name string, opts ...Option) (Application, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Application{}, ErrBlankName
	}

	f := factory{clock: time.Now}
	for _, opt := range opts {
		opt(&f)
	}

	if f.id == "" {
		f.id = uuid.New().String()
	}
	createdAt := f.createdAt
	if createdAt.IsZero() {
		createdAt = f.clock()
	}
	if f.monthOffset != 0 {
		createdAt = AddMonths(createdAt, f.monthOffset)
	}

	return Application{
		id:        f.id,
		name:      name,
		createdAt: createdAt.UTC(),
	}, nil
}

// Restore rebuilds an application read back from storage.
func Restore(id, name string, createdAt time.Time) Application {
	return Application{id: id, name: name, createdAt: createdAt.UTC()}
}
