package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNew_Defaults(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	app, err := New("  fred  ", WithClock(fixedClock(now)))
	require.NoError(t, err)

	assert.Equal(t, "fred", app.Name())
	assert.NotEmpty(t, app.ID())
	assert.Equal(t, now.UTC(), app.CreatedAt())
	assert.Equal(t, time.UTC, app.CreatedAt().Location())
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		app, err := New("fred")
		require.NoError(t, err)
		assert.False(t, seen[app.ID()], "duplicate id %s", app.ID())
		seen[app.ID()] = true
	}
}

func TestNew_BlankName(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := New(name)
		assert.ErrorIs(t, err, ErrBlankName)
	}
}

func TestNew_MonthOffset(t *testing.T) {
	base := time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset int
		want   time.Time
	}{
		{name: "no offset", offset: 0, want: base},
		{name: "one month ahead clamps to leap day", offset: 1, want: time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)},
		{name: "six months back", offset: -6, want: time.Date(2023, 7, 31, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := New("fred", WithCreatedAt(base), WithMonthOffset(tt.offset))
			require.NoError(t, err)
			assert.Equal(t, tt.want, app.CreatedAt())
		})
	}
}

func TestNew_WithID(t *testing.T) {
	app, err := New("fred", WithID("app-001"))
	require.NoError(t, err)
	assert.Equal(t, "app-001", app.ID())
}

func TestRestore(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 30, 0, 0, time.FixedZone("EST", -5*3600))
	app := Restore("app-9", "wilma", created)

	assert.Equal(t, "app-9", app.ID())
	assert.Equal(t, "wilma", app.Name())
	assert.True(t, created.Equal(app.CreatedAt()))
	assert.Equal(t, time.UTC, app.CreatedAt().Location())
}

func TestAge(t *testing.T) {
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	app := Restore("a", "fred", created)

	assert.Equal(t, 48*time.Hour, app.Age(created.Add(48*time.Hour)))
	assert.Negative(t, int64(app.Age(created.Add(-time.Hour))))
}

func TestAddMonths(t *testing.T) {
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }

	tests := []struct {
		name string
		from time.Time
		n    int
		want time.Time
	}{
		{"mid month", at(2024, time.June, 15), -1, at(2024, time.May, 15)},
		{"mar 31 back to feb", at(2023, time.March, 31), -1, at(2023, time.February, 28)},
		{"mar 31 back to leap feb", at(2024, time.March, 31), -1, at(2024, time.February, 29)},
		{"mar 30 back to leap feb", at(2024, time.March, 30), -1, at(2024, time.February, 29)},
		{"mar 29 back to leap feb", at(2024, time.March, 29), -1, at(2024, time.February, 29)},
		{"may 31 back to apr", at(2023, time.May, 31), -1, at(2023, time.April, 30)},
		{"leap day forward a year", at(2024, time.February, 29), 12, at(2025, time.February, 28)},
		{"jan 31 forward", at(2023, time.January, 31), 1, at(2023, time.February, 28)},
		{"across year", at(2024, time.January, 15), -2, at(2023, time.November, 15)},
		{"zero", at(2024, time.July, 31), 0, at(2024, time.July, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.from, tt.n))
		})
	}
}

func TestNew_WithMonthOffsetClampsMonthEnd(t *testing.T) {
	app, err := New("fred", WithCreatedAt(time.Date(2023, time.March, 31, 12, 0, 0, 0, time.UTC)), WithMonthOffset(-1))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.February, 28, 12, 0, 0, 0, time.UTC), app.CreatedAt())
}
