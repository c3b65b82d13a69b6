package contact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestInWindow(t *testing.T) {
	tests := []struct {
		name       string
		today      time.Time
		birthMonth time.Month
		birthDay   int
		period     int
		want       bool
	}{
		{
			name:       "upcoming within period",
			today:      date(2024, time.September, 25),
			birthMonth: time.September,
			birthDay:   30,
			period:     7,
			want:       true,
		},
		{
			name:       "already passed rolls to next year",
			today:      date(2024, time.September, 25),
			birthMonth: time.September,
			birthDay:   1,
			period:     7,
			want:       false,
		},
		{
			name:       "year-end wraparound",
			today:      date(2024, time.December, 28),
			birthMonth: time.January,
			birthDay:   2,
			period:     7,
			want:       true,
		},
		{
			name:       "birthday today",
			today:      date(2024, time.September, 25),
			birthMonth: time.September,
			birthDay:   25,
			period:     7,
			want:       true,
		},
		{
			name:       "exactly at end of period",
			today:      date(2024, time.September, 25),
			birthMonth: time.October,
			birthDay:   2,
			period:     7,
			want:       true,
		},
		{
			name:       "one day past end of period",
			today:      date(2024, time.September, 25),
			birthMonth: time.October,
			birthDay:   3,
			period:     7,
			want:       false,
		},
		{
			// A day-of-month earlier than today's in a later month must
			// not be treated as passed. Full-date comparison handles it;
			// independent month/day comparison would not.
			name:       "earlier day in next month",
			today:      date(2024, time.September, 29),
			birthMonth: time.October,
			birthDay:   1,
			period:     7,
			want:       true,
		},
		{
			name:       "zero period matches only today",
			today:      date(2024, time.June, 10),
			birthMonth: time.June,
			birthDay:   10,
			period:     0,
			want:       true,
		},
		{
			name:       "zero period excludes tomorrow",
			today:      date(2024, time.June, 10),
			birthMonth: time.June,
			birthDay:   11,
			period:     0,
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InWindow(tt.today, tt.birthMonth, tt.birthDay, tt.period)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInWindowIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, time.September, 25, 23, 59, 0, 0, time.UTC)
	assert.True(t, InWindow(today, time.September, 25, 7))
}

func TestNextOccurrence(t *testing.T) {
	t.Run("this year when not yet passed", func(t *testing.T) {
		next := NextOccurrence(date(2024, time.September, 25), time.September, 30)
		assert.Equal(t, date(2024, time.September, 30), next)
	})

	t.Run("next year when passed", func(t *testing.T) {
		next := NextOccurrence(date(2024, time.September, 25), time.September, 1)
		assert.Equal(t, date(2025, time.September, 1), next)
	})

	t.Run("leap day in a leap year", func(t *testing.T) {
		next := NextOccurrence(date(2024, time.February, 1), time.February, 29)
		assert.Equal(t, date(2024, time.February, 29), next)
	})

	t.Run("leap day resolves to March 1 in a non-leap year", func(t *testing.T) {
		next := NextOccurrence(date(2025, time.February, 1), time.February, 29)
		assert.Equal(t, date(2025, time.March, 1), next)
	})

	t.Run("leap day already passed rolls into non-leap year", func(t *testing.T) {
		next := NextOccurrence(date(2024, time.March, 15), time.February, 29)
		assert.Equal(t, date(2025, time.March, 1), next)
	})
}
