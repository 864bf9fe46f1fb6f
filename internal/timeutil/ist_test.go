package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayMonthCrossesMidnightInIST(t *testing.T) {
	// 19:00 UTC on Jan 31 is 00:30 IST on Feb 1.
	utc := time.Date(2025, time.January, 31, 19, 0, 0, 0, time.UTC)
	assert.Equal(t, "0102", DayMonth(utc))

	// 18:00 UTC is still 23:30 IST the same day.
	utc = time.Date(2025, time.January, 31, 18, 0, 0, 0, time.UTC)
	assert.Equal(t, "3101", DayMonth(utc))
}

func TestStartOfDay(t *testing.T) {
	ist := time.Date(2025, time.March, 15, 14, 30, 45, 0, IST)
	start := StartOfDay(ist)

	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
	assert.Equal(t, 15, start.Day())
	assert.Equal(t, time.March, start.Month())
}

func TestParseInIST(t *testing.T) {
	parsed, err := ParseInIST(DateLayout, "2025-03-15")
	require.NoError(t, err)
	assert.Equal(t, IST, parsed.Location())
	assert.Equal(t, "1503", DayMonth(parsed))

	_, err = ParseInIST(DateLayout, "15-03-2025")
	assert.Error(t, err)
}
