package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRangeOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    DateRange
		b    DateRange
		want bool
	}{
		{
			name: "disjoint",
			a:    DateRange{day(2024, 6, 10), day(2024, 6, 11)},
			b:    DateRange{day(2024, 6, 12), day(2024, 6, 15)},
			want: false,
		},
		{
			name: "shared boundary day",
			a:    DateRange{day(2024, 6, 10), day(2024, 6, 12)},
			b:    DateRange{day(2024, 6, 12), day(2024, 6, 15)},
			want: true,
		},
		{
			name: "contained",
			a:    DateRange{day(2024, 6, 10), day(2024, 6, 20)},
			b:    DateRange{day(2024, 6, 12), day(2024, 6, 15)},
			want: true,
		},
		{
			name: "identical",
			a:    DateRange{day(2024, 6, 10), day(2024, 6, 12)},
			b:    DateRange{day(2024, 6, 10), day(2024, 6, 12)},
			want: true,
		},
		{
			name: "partial overlap",
			a:    DateRange{day(2024, 6, 10), day(2024, 6, 14)},
			b:    DateRange{day(2024, 6, 13), day(2024, 6, 18)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestDateRangeDays(t *testing.T) {
	assert.Equal(t, 0, DateRange{day(2024, 6, 10), day(2024, 6, 10)}.Days())
	assert.Equal(t, 1, DateRange{day(2024, 6, 10), day(2024, 6, 11)}.Days())
	assert.Equal(t, 8, DateRange{day(2024, 6, 10), day(2024, 6, 18)}.Days())

	// Time-of-day is ignored.
	withHours := DateRange{
		Start: time.Date(2024, 6, 10, 23, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 12, 1, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 2, withHours.Days())
}

func TestParseFormatDate(t *testing.T) {
	parsed, err := ParseDate("2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, day(2024, 6, 10), parsed)
	assert.Equal(t, "2024-06-10", FormatDate(parsed))

	_, err = ParseDate("10.06.2024")
	assert.Error(t, err)
}

func TestDay(t *testing.T) {
	ts := time.Date(2024, 6, 10, 18, 45, 12, 0, time.UTC)
	assert.Equal(t, day(2024, 6, 10), Day(ts))
}
