package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveLiterals(t *testing.T) {
	// Wednesday afternoon
	now := time.Date(2025, time.June, 18, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"today", day(2025, time.June, 18)},
		{"now", day(2025, time.June, 18)},
		{"  Today ", day(2025, time.June, 18)},
		{"tomorrow", day(2025, time.June, 19)},
		{"TOMORROW", day(2025, time.June, 19)},
		{"this weekend", day(2025, time.June, 21)},
		{"2025-06-20", day(2025, time.June, 20)},
		{"on 2025-06-20", day(2025, time.June, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := Resolve(tt.expr, now)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestResolveThisWeekendOffsets(t *testing.T) {
	// Monday 2025-06-16 through Sunday 2025-06-22
	wantAhead := map[time.Weekday]int{
		time.Monday:    5,
		time.Tuesday:   4,
		time.Wednesday: 3,
		time.Thursday:  2,
		time.Friday:    1,
		time.Saturday:  0,
		time.Sunday:    6,
	}
	for i := 0; i < 7; i++ {
		now := day(2025, time.June, 16+i)
		got, ok := Resolve("this weekend", now)
		require.True(t, ok)
		assert.Equal(t, time.Saturday, got.Weekday())
		assert.Equal(t, wantAhead[now.Weekday()], int(got.Sub(now).Hours()/24), "from %s", now.Weekday())
	}
}

func TestResolveFailures(t *testing.T) {
	now := day(2025, time.June, 18)
	for _, expr := range []string{
		"", "   ", "2025-99-99", "banana", "Thufriday",
		"next next monday", "weather xyz tomorrow please", "june 1 or so",
	} {
		_, ok := Resolve(expr, now)
		assert.False(t, ok, "expected %q to be unparsable", expr)
	}
}

func TestResolveNaturalLanguage(t *testing.T) {
	now := time.Date(2025, time.June, 18, 9, 0, 0, 0, time.UTC)

	got, ok := Resolve("next monday", now)
	require.True(t, ok)
	assert.Equal(t, time.Monday, got.Weekday())
	assert.True(t, got.After(now))
}

func TestResolvePrefersFuture(t *testing.T) {
	// Wednesday
	now := time.Date(2025, time.June, 18, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"June 1", day(2026, time.June, 1)},
		{"june 20", day(2025, time.June, 20)},
		{"January 5th", day(2026, time.January, 5)},
		{"monday", day(2025, time.June, 23)},
		{"on Friday", day(2025, time.June, 20)},
		{"last monday", day(2025, time.June, 16)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := Resolve(tt.expr, now)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestResolverClock(t *testing.T) {
	r := NewResolver()
	r.Now = func() time.Time { return time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC) }

	assert.True(t, day(2024, time.December, 31).Equal(r.Today()))
	got, ok := r.Resolve("tomorrow")
	require.True(t, ok)
	assert.True(t, day(2025, time.January, 1).Equal(got))
}
